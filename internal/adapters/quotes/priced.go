// Package quotes encadena las fuentes de precio del sistema: el daemon de
// precios compartido como primaria y los fetch directos (NSE, Yahoo) como
// fallback por este orden.
package quotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
)

// DefaultServiceTimeout acota la espera por el daemon: si no contesta rápido
// es mejor caer al fetch directo que bloquear el poll.
const DefaultServiceTimeout = 800 * time.Millisecond

// ServiceClient consulta el daemon de precios compartido. Un circuit breaker
// corta el escalón cuando el daemon encadena fallos: las peticiones saltan
// directas al fallback sin pagar el timeout cada vez.
type ServiceClient struct {
	http    *http.Client
	base    string
	breaker *gobreaker.CircuitBreaker
}

// NewServiceClient crea el cliente del daemon. timeout <=0 usa
// DefaultServiceTimeout.
func NewServiceClient(base string, timeout time.Duration) *ServiceClient {
	if timeout <= 0 {
		timeout = DefaultServiceTimeout
	}

	st := gobreaker.Settings{Name: "priced"}
	st.Interval = 60 * time.Second
	st.Timeout = 15 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("quotes: breaker del daemon de precios cambió de estado",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	}

	return &ServiceClient{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Quote pide el precio al daemon. Con el breaker abierto devuelve error al
// instante, sin tocar la red.
func (c *ServiceClient) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, symbol)
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quotes.ServiceClient %s: %w", symbol, err)
	}
	return out.(domain.Quote), nil
}

func (c *ServiceClient) fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	u := c.base + "/price/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Quote{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return domain.Quote{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("read response: %w", err)
	}

	price := gjson.GetBytes(body, "price")
	if !price.Exists() || price.Type == gjson.Null || price.Float() <= 0 {
		return domain.Quote{}, fmt.Errorf("respuesta sin precio para %s", symbol)
	}

	quote := domain.Quote{
		Symbol: symbol,
		Price:  price.Float(),
		Source: domain.SourcePrimary,
		Venue:  "service",
		Origin: time.Now(),
	}
	if ts := gjson.GetBytes(body, "timestamp").String(); ts != "" {
		if origin, ok := parseServiceTime(ts); ok {
			quote.Origin = origin
		}
	}
	return quote, nil
}

// parseServiceTime acepta RFC3339 y el isoformat naive (UTC implícito) que
// emiten daemons antiguos.
func parseServiceTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
