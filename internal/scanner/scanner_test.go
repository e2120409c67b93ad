package scanner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/feed"
	"github.com/alejandrodnm/intrabot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type stubQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

func (s *stubQuotes) Fetch(_ context.Context, symbol string) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return domain.Quote{}, s.err
	}
	price, ok := s.prices[symbol]
	if !ok {
		return domain.Quote{}, errors.New("unknown symbol")
	}
	return domain.Quote{
		Symbol: symbol,
		Price:  price,
		Source: domain.SourcePrimary,
		Venue:  "service",
		Origin: time.Now(),
	}, nil
}

func (s *stubQuotes) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSeries struct {
	mu     sync.Mutex
	series map[string]domain.Series
	fail   map[string]bool
}

func (s *stubSeries) Intraday(_ context.Context, symbol string) (domain.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[symbol] {
		return nil, errors.New("upstream 500")
	}
	return s.series[symbol], nil
}

type stubChain struct {
	mu    sync.Mutex
	chain domain.Chain
	spot  float64
	err   error
	calls int
}

func (s *stubChain) Chain(_ context.Context, _ string) (domain.Chain, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.chain, s.spot, nil
}

func (s *stubChain) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubScorer struct{ v float64 }

func (s stubScorer) Score(domain.SetupFeatures) *float64 {
	v := s.v
	return &v
}

type stubNotifier struct {
	mu    sync.Mutex
	scans int
}

func (n *stubNotifier) PrintScan(context.Context, []domain.ScanResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scans++
	return nil
}
func (n *stubNotifier) PrintAdvice(context.Context, domain.Advice) error        { return nil }
func (n *stubNotifier) PrintTrades(context.Context, []domain.TradeRecord) error { return nil }
func (n *stubNotifier) PrintDayReport(context.Context, domain.DayReport) error  { return nil }

func (n *stubNotifier) scanCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.scans
}

// --- helpers ---

// bullishChain produce PCR 1.5 con escritura de puts dominante en el ATM.
func bullishChain() *stubChain {
	return &stubChain{
		chain: domain.Chain{
			{Strike: 22500, CEOI: 1000, CEOIChange: 100, PEOI: 1500, PEOIChange: 500},
		},
		spot: 22500,
	}
}

func newScanner(cfg scanner.Config, q *stubQuotes, sp *stubSeries, cp *stubChain, scorer ...stubScorer) *scanner.Scanner {
	f := feed.New(q)
	series := feed.NewSeriesCache(sp, time.Minute)
	options := feed.NewOptionsCache(cp, 3, time.Minute)
	if len(scorer) > 0 {
		return scanner.New(cfg, f, series, options, scorer[0], nil)
	}
	return scanner.New(cfg, f, series, options, nil, nil)
}

// --- tests ---

func TestScan_PreservesWatchlistOrder(t *testing.T) {
	symbols := []string{"RELIANCE", "TCS", "INFY", "SBIN", "HDFCBANK"}
	quotes := &stubQuotes{prices: map[string]float64{
		"RELIANCE": 2500, "TCS": 3600, "INFY": 1480, "SBIN": 810, "HDFCBANK": 1650,
	}}
	sc := newScanner(scanner.Config{}, quotes, &stubSeries{}, bullishChain())

	results := sc.Scan(context.Background(), symbols, domain.DirectionLong)

	require.Len(t, results, len(symbols))
	for i, symbol := range symbols {
		assert.Equal(t, symbol, results[i].Symbol)
	}
}

func TestScan_FailingSeriesYieldsAvoidWithoutAbort(t *testing.T) {
	symbols := []string{"S1", "S2", "S3", "S4", "S5"}
	prices := map[string]float64{}
	for _, s := range symbols {
		prices[s] = 100
	}
	quotes := &stubQuotes{prices: prices}
	series := &stubSeries{fail: map[string]bool{"S3": true}}
	sc := newScanner(scanner.Config{}, quotes, series, bullishChain())

	results := sc.Scan(context.Background(), symbols, domain.DirectionLong)

	require.Len(t, results, 5)
	assert.Equal(t, domain.ScanAvoid, results[2].Status)
	assert.Contains(t, results[2].Reasons, "intraday series unavailable")
	// los demás símbolos completan el pipeline con normalidad
	for _, i := range []int{0, 1, 3, 4} {
		assert.NotEqual(t, domain.ScanAvoid, results[i].Status, "symbol %s", symbols[i])
	}
}

func TestScan_EmptySeriesScoresWatch(t *testing.T) {
	// Serie vacía: el gate permite (indicadores ausentes solo informan) y la
	// confianza degrada a los defaults. Con PCR y bias alineados al lado long
	// el total queda en zona WATCH.
	quotes := &stubQuotes{prices: map[string]float64{"TCS": 3600}}
	sc := newScanner(scanner.Config{}, quotes, &stubSeries{}, bullishChain())

	results := sc.Scan(context.Background(), []string{"TCS"}, domain.DirectionLong)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ScanWatch, results[0].Status)
	assert.Equal(t, 49, results[0].Score)
	assert.Equal(t, domain.ConfidenceLow, results[0].Label)
	assert.Equal(t, domain.FreshnessLive, results[0].Freshness)
}

func TestScan_GateBlockYieldsAvoid(t *testing.T) {
	// Velas con VWAP 100 y precio 110: a 10% del VWAP el gate ORB bloquea.
	baseTS := time.Date(2026, 3, 2, 9, 15, 0, 0, domain.MarketLocation())
	var candles domain.Series
	for i := 0; i < 3; i++ {
		candles = append(candles, domain.Candle{
			TS:     baseTS.Add(time.Duration(i) * 3 * time.Minute),
			Open:   100,
			High:   100,
			Low:    100,
			Close:  100,
			Volume: 1000,
		})
	}
	quotes := &stubQuotes{prices: map[string]float64{"SBIN": 110}}
	series := &stubSeries{series: map[string]domain.Series{"SBIN": candles}}
	sc := newScanner(scanner.Config{}, quotes, series, bullishChain())

	results := sc.Scan(context.Background(), []string{"SBIN"}, domain.DirectionLong)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ScanAvoid, results[0].Status)
	assert.Equal(t, 0, results[0].Score)
	require.NotEmpty(t, results[0].Reasons)
	assert.Contains(t, results[0].Reasons[0], "VWAP")
}

func TestScan_QuoteUnavailableYieldsAvoid(t *testing.T) {
	quotes := &stubQuotes{err: errors.New("all sources down")}
	sc := newScanner(scanner.Config{}, quotes, &stubSeries{}, bullishChain())

	results := sc.Scan(context.Background(), []string{"INFY"}, domain.DirectionLong)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ScanAvoid, results[0].Status)
	assert.Contains(t, results[0].Reasons, "quote unavailable")
	assert.Equal(t, domain.FreshnessDelayed, results[0].Freshness)
}

func TestScan_OptionsContextFetchedOncePerBatch(t *testing.T) {
	symbols := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"}
	prices := map[string]float64{}
	for _, s := range symbols {
		prices[s] = 100
	}
	chain := bullishChain()
	sc := newScanner(scanner.Config{}, &stubQuotes{prices: prices}, &stubSeries{}, chain)

	sc.Scan(context.Background(), symbols, domain.DirectionLong)

	assert.Equal(t, 1, chain.callCount())
}

func TestScan_ChainFailureDegradesToNeutral(t *testing.T) {
	// Sin chain el PCR queda nil y el bias neutro: 5+3+8+8+8+3 = 35 → AVOID
	// por score, no por bloqueo.
	quotes := &stubQuotes{prices: map[string]float64{"TCS": 3600}}
	chain := &stubChain{err: errors.New("nse timeout")}
	sc := newScanner(scanner.Config{}, quotes, &stubSeries{}, chain)

	results := sc.Scan(context.Background(), []string{"TCS"}, domain.DirectionLong)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ScanAvoid, results[0].Status)
	assert.Equal(t, 35, results[0].Score)
}

func TestScan_MLScoreIsAdvisoryOnly(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"TCS": 3600}}
	sc := newScanner(scanner.Config{}, quotes, &stubSeries{}, bullishChain(), stubScorer{v: 0.93})

	results := sc.Scan(context.Background(), []string{"TCS"}, domain.DirectionLong)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].MLScore)
	assert.InDelta(t, 0.93, *results[0].MLScore, 1e-9)
	// un ML altísimo no asciende el status: sigue mandando el score de reglas
	assert.Equal(t, domain.ScanWatch, results[0].Status)
}

func TestScan_EmptyWatchlist(t *testing.T) {
	sc := newScanner(scanner.Config{}, &stubQuotes{}, &stubSeries{}, bullishChain())
	assert.Nil(t, sc.Scan(context.Background(), nil, domain.DirectionLong))
}

func TestRun_SkipsCyclesWhileMarketClosed(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 11, 0, 0, 0, domain.MarketLocation())
	quotes := &stubQuotes{prices: map[string]float64{"TCS": 3600}}
	notifier := &stubNotifier{}

	f := feed.New(quotes)
	series := feed.NewSeriesCache(&stubSeries{}, time.Minute)
	options := feed.NewOptionsCache(bullishChain(), 3, time.Minute)
	cfg := scanner.Config{Symbols: []string{"TCS"}}
	sc := scanner.NewWithClock(cfg, f, series, options, nil, notifier, func() time.Time { return saturday })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(60 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 0, notifier.scanCount(), "closed market must not print scans")
	assert.Equal(t, 0, quotes.callCount(), "closed market must not touch the network")
}

func TestRun_NotifiesEachOpenCycle(t *testing.T) {
	monday := time.Date(2026, 3, 2, 10, 30, 0, 0, domain.MarketLocation())
	quotes := &stubQuotes{prices: map[string]float64{"TCS": 3600}}
	notifier := &stubNotifier{}

	f := feed.New(quotes)
	series := feed.NewSeriesCache(&stubSeries{}, time.Minute)
	options := feed.NewOptionsCache(bullishChain(), 3, time.Minute)
	cfg := scanner.Config{Symbols: []string{"TCS"}}
	sc := scanner.NewWithClock(cfg, f, series, options, nil, notifier, func() time.Time { return monday })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx, 25*time.Millisecond) }()

	time.Sleep(70 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.GreaterOrEqual(t, notifier.scanCount(), 2, "initial cycle plus at least one tick")
}
