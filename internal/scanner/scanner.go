package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/feed"
	"github.com/alejandrodnm/intrabot/internal/ports"
)

const (
	defaultWorkers      = 5
	defaultQuoteTTL     = 3 * time.Second
	DefaultScanInterval = 20 * time.Second
)

// Config contiene la configuración del scanner del watchlist.
type Config struct {
	Symbols       []string
	Direction     domain.Direction
	Strategy      domain.Strategy
	Index         string // índice para el contexto de opciones
	Workers       int
	QuoteInterval time.Duration
}

// Scanner recorre el watchlist aplicando el pipeline completo por símbolo:
// precio → gate → confianza → status, con el contexto de opciones del índice
// compartido por todo el batch.
type Scanner struct {
	cfg      Config
	feed     *feed.Feed
	series   *feed.SeriesCache
	options  *feed.OptionsCache
	scorer   ports.SetupScorer
	notifier ports.Notifier
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas. scorer y
// notifier pueden ser nil: sin ML y sin salida respectivamente.
func New(
	cfg Config,
	f *feed.Feed,
	series *feed.SeriesCache,
	options *feed.OptionsCache,
	scorer ports.SetupScorer,
	notifier ports.Notifier,
) *Scanner {
	return NewWithClock(cfg, f, series, options, scorer, notifier, time.Now)
}

// NewWithClock crea un Scanner con reloj inyectable para tests.
func NewWithClock(
	cfg Config,
	f *feed.Feed,
	series *feed.SeriesCache,
	options *feed.OptionsCache,
	scorer ports.SetupScorer,
	notifier ports.Notifier,
	now func() time.Time,
) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QuoteInterval <= 0 {
		cfg.QuoteInterval = defaultQuoteTTL
	}
	if cfg.Index == "" {
		cfg.Index = "NIFTY"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = domain.StrategyORB
	}
	return &Scanner{
		cfg:      cfg,
		feed:     f,
		series:   series,
		options:  options,
		scorer:   scorer,
		notifier: notifier,
		now:      now,
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele. Con el
// mercado cerrado el ciclo se salta: no hay red ni resultados fuera de sesión.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	slog.Info("scanner starting",
		"symbols", len(s.cfg.Symbols),
		"interval", interval,
		"workers", s.cfg.Workers,
	)

	s.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle ejecuta un batch completo y lo presenta por el notifier.
func (s *Scanner) runCycle(ctx context.Context) {
	now := s.now()
	if !domain.MarketOpen(now) {
		slog.Info("market closed, scan skipped", "opens_in", domain.SessionCountdown(now))
		return
	}

	start := time.Now()
	results := s.Scan(ctx, s.cfg.Symbols, s.cfg.Direction)

	if s.notifier != nil {
		if err := s.notifier.PrintScan(ctx, results); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"symbols", len(results),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// Scan escanea el batch en el orden de entrada. El contexto de opciones del
// índice se resuelve una sola vez por batch; cada símbolo pasa por el pool de
// workers y escribe su resultado en posición, así la salida conserva el orden
// del watchlist. Un símbolo que falla produce su fila AVOID, jamás aborta el
// batch.
func (s *Scanner) Scan(ctx context.Context, symbols []string, direction domain.Direction) []domain.ScanResult {
	if len(symbols) == 0 {
		return nil
	}

	opts, err := s.options.Context(ctx, s.cfg.Index)
	if err != nil {
		slog.Debug("options context unavailable", "index", s.cfg.Index, "err", err)
	}

	workers := s.cfg.Workers
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan int, len(symbols))
	results := make([]domain.ScanResult, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scanSymbol(ctx, symbols[i], direction, opts)
			}
		}()
	}

	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// scanSymbol ejecuta el pipeline de un símbolo. Cualquier fallo degrada a
// AVOID con su razón; el resto del batch no se entera.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, direction domain.Direction, opts feed.OptionsContext) domain.ScanResult {
	res := domain.ScanResult{
		Symbol:    symbol,
		Status:    domain.ScanAvoid,
		Label:     domain.ConfidenceNoTrade,
		Freshness: domain.FreshnessDelayed,
	}

	slot, err := s.feed.Poll(ctx, symbol, s.cfg.QuoteInterval)
	if slot.Price == nil {
		slog.Debug("scan: no quote", "symbol", symbol, "err", err)
		res.Reasons = []string{"quote unavailable"}
		return res
	}
	freshness, _ := slot.Freshness(s.now())
	res.Freshness = freshness

	series, err := s.series.Get(ctx, symbol)
	if err != nil {
		slog.Debug("scan: series failed", "symbol", symbol, "err", err)
		res.Reasons = []string{"intraday series unavailable"}
		return res
	}

	ev := domain.Evaluate(series, *slot.Price, s.cfg.Strategy)
	res.Reasons = ev.Reasons
	if !ev.Allowed {
		return res
	}

	conf := domain.ScoreConfidence(ev.Snapshot, direction, opts.PCR, opts.Bias, domain.RiskContext{})
	res.Score = conf.Score
	res.Label = conf.Label
	res.Status = domain.StatusForScore(true, conf.Score)
	res.Reasons = conf.Reasons

	if s.scorer != nil {
		features := domain.BuildSetupFeatures(ev.Snapshot, series, opts.PCR, opts.Bias, s.now())
		res.MLScore = s.scorer.Score(features)
	}

	return res
}
