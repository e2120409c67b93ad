package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultPollInterval es el throttle por símbolo en modo live.
const DefaultPollInterval = 1500 * time.Millisecond

// Slot es la vista inmutable del estado de un símbolo en el feed.
type Slot struct {
	Symbol   string
	Price    *float64
	Source   domain.SourceTag
	Venue    string
	Origin   *time.Time // cuándo la fuente produjo el valor
	LastPoll time.Time
}

// Freshness clasifica la antigüedad del valor del slot.
func (s Slot) Freshness(now time.Time) (domain.Freshness, *int) {
	return domain.ClassifyFreshness(s.Origin, now)
}

// slot es el estado mutable por símbolo. Cada slot lleva su propio lock:
// el throttle es por símbolo, no global.
type slot struct {
	mu       sync.Mutex
	price    *float64
	source   domain.SourceTag
	venue    string
	origin   *time.Time
	lastPoll time.Time
}

// Feed es el cache de precios por símbolo con throttling independiente.
// Polls del mismo símbolo dentro de la ventana devuelven el valor cacheado
// sin tocar la red; fuera de la ventana, polls concurrentes del mismo
// símbolo colapsan en una sola llamada upstream. Símbolos distintos avanzan
// en paralelo.
type Feed struct {
	provider ports.QuoteProvider
	now      func() time.Time
	group    singleflight.Group

	mu    sync.RWMutex
	slots map[string]*slot
}

// New crea un Feed sobre el provider dado.
func New(provider ports.QuoteProvider) *Feed {
	return NewWithClock(provider, time.Now)
}

// NewWithClock fija el reloj del feed; para tests.
func NewWithClock(provider ports.QuoteProvider, now func() time.Time) *Feed {
	return &Feed{
		provider: provider,
		now:      now,
		slots:    make(map[string]*slot),
	}
}

// Poll devuelve el precio del símbolo respetando el throttle: dentro de la
// ventana es un no-op que devuelve el valor cacheado. Fuera, consulta el
// provider y actualiza el slot. Si todas las fuentes fallan el slot conserva
// el último valor bueno (la frescura DELAYED es la señal de desconfianza),
// la fuente pasa a ERROR y el error se devuelve para quien quiera saberlo.
func (f *Feed) Poll(ctx context.Context, symbol string, minInterval time.Duration) (Slot, error) {
	s := f.slotFor(symbol)

	s.mu.Lock()
	if !s.lastPoll.IsZero() && f.now().Sub(s.lastPoll) < minInterval {
		view := s.view(symbol)
		s.mu.Unlock()
		return view, nil
	}
	s.mu.Unlock()

	// Una sola llamada upstream por símbolo aunque varios pollers crucen la
	// ventana a la vez.
	_, err, _ := f.group.Do(symbol, func() (any, error) {
		s.mu.Lock()
		if !s.lastPoll.IsZero() && f.now().Sub(s.lastPoll) < minInterval {
			// Otro poller acaba de refrescar el slot mientras esperábamos.
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		quote, err := f.provider.Fetch(ctx, symbol)
		f.apply(s, symbol, quote, err)
		return nil, err
	})

	s.mu.Lock()
	view := s.view(symbol)
	s.mu.Unlock()

	if err != nil {
		return view, fmt.Errorf("feed.Poll %s: %w", symbol, err)
	}
	return view, nil
}

// Snapshot devuelve una copia del slot sin tocar la red; ok=false si el
// símbolo nunca se ha pedido.
func (f *Feed) Snapshot(symbol string) (Slot, bool) {
	f.mu.RLock()
	s, ok := f.slots[symbol]
	f.mu.RUnlock()
	if !ok {
		return Slot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(symbol), true
}

// slotFor devuelve el slot del símbolo, creándolo perezosamente la primera
// vez. Los slots nunca se borran dentro de una sesión.
func (f *Feed) slotFor(symbol string) *slot {
	f.mu.RLock()
	s, ok := f.slots[symbol]
	f.mu.RUnlock()
	if ok {
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.slots[symbol]; ok {
		return s
	}
	s = &slot{source: domain.SourceError}
	f.slots[symbol] = s
	return s
}

// apply vuelca el resultado de un fetch en el slot. En fallo no pisa el
// último precio bueno ni su origen; lastPoll avanza igualmente para no
// martillear una fuente caída dentro de la ventana.
func (f *Feed) apply(s *slot, symbol string, quote domain.Quote, err error) {
	now := f.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.source = domain.SourceError
		slog.Warn("feed: todas las fuentes de precio fallaron",
			"symbol", symbol,
			"err", err,
			"last_known", s.price != nil,
		)
	} else {
		p := quote.Price
		s.price = &p
		s.source = quote.Source
		s.venue = quote.Venue
		if !quote.Origin.IsZero() {
			t := quote.Origin
			s.origin = &t
		} else {
			s.origin = nil
		}
	}

	if now.After(s.lastPoll) {
		s.lastPoll = now
	}
}

// view construye la copia inmutable del slot. Caller sostiene s.mu.
func (s *slot) view(symbol string) Slot {
	v := Slot{
		Symbol:   symbol,
		Source:   s.source,
		Venue:    s.venue,
		LastPoll: s.lastPoll,
	}
	if s.price != nil {
		p := *s.price
		v.Price = &p
	}
	if s.origin != nil {
		t := *s.origin
		v.Origin = &t
	}
	return v
}
