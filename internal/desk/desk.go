package desk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/intrabot/config"
	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/feed"
	"github.com/alejandrodnm/intrabot/internal/paper"
	"github.com/alejandrodnm/intrabot/internal/ports"
	"github.com/google/uuid"
)

// Desk es el estado explícito de una sesión de trading: identidad, tier,
// dirección y estrategia fijados al crearla, más el feed, los caches y el
// engine que el pipeline comparte. El ciclo de vida lo posee el loop del CLI,
// no un framework.
type Desk struct {
	id        uuid.UUID
	tier      config.Tier
	direction domain.Direction
	strategy  domain.Strategy
	index     string
	interval  time.Duration

	feed    *feed.Feed
	series  *feed.SeriesCache
	options *feed.OptionsCache
	engine  *paper.Engine
	scorer  ports.SetupScorer
	now     func() time.Time
}

// Options fija los parámetros de sesión del desk.
type Options struct {
	Tier         config.Tier
	Direction    domain.Direction
	Strategy     domain.Strategy
	Index        string
	PollInterval time.Duration
}

// New crea un Desk con id de sesión propio.
func New(opts Options, f *feed.Feed, series *feed.SeriesCache, options *feed.OptionsCache, engine *paper.Engine, scorer ports.SetupScorer) *Desk {
	return NewWithClock(opts, f, series, options, engine, scorer, time.Now)
}

// NewWithClock crea un Desk con reloj inyectable para tests.
func NewWithClock(opts Options, f *feed.Feed, series *feed.SeriesCache, options *feed.OptionsCache, engine *paper.Engine, scorer ports.SetupScorer, now func() time.Time) *Desk {
	if opts.Index == "" {
		opts.Index = "NIFTY"
	}
	if opts.Strategy == "" {
		opts.Strategy = domain.StrategyORB
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = feed.DefaultPollInterval
	}
	return &Desk{
		id:        uuid.New(),
		tier:      opts.Tier,
		direction: opts.Direction,
		strategy:  opts.Strategy,
		index:     opts.Index,
		interval:  opts.PollInterval,
		feed:      f,
		series:    series,
		options:   options,
		engine:    engine,
		scorer:    scorer,
		now:       now,
	}
}

// ID devuelve el identificador de la sesión.
func (d *Desk) ID() uuid.UUID { return d.id }

// Tier devuelve el tier de la sesión.
func (d *Desk) Tier() config.Tier { return d.tier }

// Engine expone el engine de paper trading de la sesión.
func (d *Desk) Engine() *paper.Engine { return d.engine }

// Advise ejecuta el pipeline completo de un símbolo y compone la
// recomendación para render: precio → gate → confianza → opciones → riesgo →
// decisión. Solo el agotamiento total de fuentes de precio es error; todo lo
// demás degrada con su razón dentro del Advice.
func (d *Desk) Advise(ctx context.Context, symbol string) (domain.Advice, error) {
	slot, err := d.feed.Poll(ctx, symbol, d.interval)
	if slot.Price == nil {
		if err == nil {
			err = domain.ErrQuoteUnavailable
		}
		return domain.Advice{}, fmt.Errorf("desk.Advise %s: %w", symbol, err)
	}

	now := d.now()
	freshness, age := slot.Freshness(now)
	price := *slot.Price

	quote := domain.Quote{
		Symbol: symbol,
		Price:  price,
		Source: slot.Source,
		Venue:  slot.Venue,
	}
	if slot.Origin != nil {
		quote.Origin = *slot.Origin
	}

	series, err := d.series.Get(ctx, symbol)
	if err != nil {
		slog.Warn("desk: series unavailable, evaluating without indicators",
			"symbol", symbol, "err", err)
		series = nil
	}

	ev := domain.Evaluate(series, price, d.strategy)

	opts := d.optionsContext(ctx)

	report, err := d.engine.DayReport(ctx)
	if err != nil {
		return domain.Advice{}, fmt.Errorf("desk.Advise %s: %w", symbol, err)
	}
	riskStatus := domain.CheckRisk(
		domain.RiskState{Trades: report.Closed, PnL: report.TotalPnL},
		d.engine.Limits(),
	)
	riskCtx := domain.RiskContext{TradesToday: report.Total, DayPnL: report.TotalPnL}

	// La confianza solo califica setups que el gate dejó pasar; un bloqueo
	// deja score 0 y el combinador corta por su cuenta.
	conf := domain.Confidence{Label: domain.ConfidenceNoTrade, Reasons: ev.Reasons}
	if ev.Allowed {
		conf = domain.ScoreConfidence(ev.Snapshot, d.direction, opts.PCR, opts.Bias, riskCtx)
	}

	marketOpen := domain.MarketOpen(now)
	decision := domain.Decide(marketOpen, riskStatus, opts.PCR, &price, ev.Snapshot.Resistance, opts.Bias, conf.Score, d.direction)

	advice := domain.Advice{
		Symbol:     symbol,
		Quote:      quote,
		Freshness:  freshness,
		AgeSecs:    age,
		Evaluation: ev,
		Confidence: conf,
		IndexPCR:   opts.PCR,
		Bias:       opts.Bias,
		BiasDetail: opts.Detail,
		Risk:       riskStatus,
		Decision:   decision,
		MarketOpen: marketOpen,
		Session:    domain.SessionCountdown(now),
	}

	if d.scorer != nil && d.tier.Caps().MLEnabled {
		features := domain.BuildSetupFeatures(ev.Snapshot, series, opts.PCR, opts.Bias, now)
		advice.MLScore = d.scorer.Score(features)
	}

	return advice, nil
}

// optionsContext resuelve el contexto de opciones respetando el tier: sin
// LiveOptions no se toca la red y el contexto queda neutro.
func (d *Desk) optionsContext(ctx context.Context) feed.OptionsContext {
	if !d.tier.Caps().LiveOptions {
		return feed.OptionsContext{
			Index:  d.index,
			Bias:   domain.BiasNeutral,
			Detail: "live options not included in tier",
		}
	}
	opts, err := d.options.Context(ctx, d.index)
	if err != nil {
		slog.Debug("desk: options context unavailable", "index", d.index, "err", err)
	}
	return opts
}
