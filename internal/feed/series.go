package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/ports"
)

// TTLs por defecto de los datos pesados del pipeline.
const (
	DefaultSeriesTTL  = 30 * time.Second
	DefaultOptionsTTL = 30 * time.Second
)

// SeriesCache sirve la serie intradía de cada símbolo con un TTL: dentro de
// la ventana todos los consumidores comparten la misma serie sin refetch.
// Los errores no se cachean; el siguiente Get reintenta.
type SeriesCache struct {
	provider ports.SeriesProvider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]seriesEntry
}

type seriesEntry struct {
	series    domain.Series
	fetchedAt time.Time
}

// NewSeriesCache crea el cache con el TTL dado (<=0 → DefaultSeriesTTL).
func NewSeriesCache(provider ports.SeriesProvider, ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		ttl = DefaultSeriesTTL
	}
	return &SeriesCache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]seriesEntry),
	}
}

// Get devuelve la serie del símbolo, del cache si sigue fresca.
func (c *SeriesCache) Get(ctx context.Context, symbol string) (domain.Series, error) {
	c.mu.Lock()
	if e, ok := c.entries[symbol]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.series, nil
	}
	c.mu.Unlock()

	series, err := c.provider.Intraday(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("feed.SeriesCache %s: %w", symbol, err)
	}

	c.mu.Lock()
	c.entries[symbol] = seriesEntry{series: series, fetchedAt: c.now()}
	c.mu.Unlock()
	return series, nil
}

// OptionsContext es el contexto de opciones de un índice listo para el
// combinador y el scorer: PCR de la región ATM y sesgo por flujo de OI.
type OptionsContext struct {
	Index  string
	Spot   float64
	PCR    *float64
	Bias   domain.OptionsBias
	Detail string
}

// OptionsCache sirve el contexto de opciones por índice con TTL. El chain es
// la llamada más pesada del pipeline; un batch de scan entero comparte un
// solo fetch.
type OptionsCache struct {
	provider ports.ChainProvider
	width    int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]optionsEntry
}

type optionsEntry struct {
	ctx       OptionsContext
	fetchedAt time.Time
}

// NewOptionsCache crea el cache de contexto de opciones. width son los
// strikes a cada lado del ATM.
func NewOptionsCache(provider ports.ChainProvider, width int, ttl time.Duration) *OptionsCache {
	if ttl <= 0 {
		ttl = DefaultOptionsTTL
	}
	if width <= 0 {
		width = 3
	}
	return &OptionsCache{
		provider: provider,
		width:    width,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]optionsEntry),
	}
}

// Context devuelve el contexto de opciones del índice, del cache si sigue
// fresco. En fallo devuelve un contexto neutro junto al error: el pipeline
// degrada a "sin datos de opciones", nunca se bloquea por el chain.
func (c *OptionsCache) Context(ctx context.Context, index string) (OptionsContext, error) {
	c.mu.Lock()
	if e, ok := c.entries[index]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.ctx, nil
	}
	c.mu.Unlock()

	neutral := OptionsContext{Index: index, Bias: domain.BiasNeutral, Detail: "insufficient options data"}

	chain, spot, err := c.provider.Chain(ctx, index)
	if err != nil {
		return neutral, fmt.Errorf("feed.OptionsCache %s: %w", index, err)
	}

	region := domain.ATMRegion(chain, spot, c.width)
	pcr := domain.PCR(region)
	bias, detail := domain.Sentiment(region, pcr)

	out := OptionsContext{
		Index:  index,
		Spot:   spot,
		PCR:    pcr,
		Bias:   bias,
		Detail: detail,
	}

	c.mu.Lock()
	c.entries[index] = optionsEntry{ctx: out, fetchedAt: c.now()}
	c.mu.Unlock()
	return out, nil
}
