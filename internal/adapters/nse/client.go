// Package nse habla con los endpoints JSON no documentados de nseindia.com.
// NSE exige cookies de sesión de navegador: el cliente calienta la sesión
// contra la home antes de tocar la API y la renueva cuando caduca.
package nse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://www.nseindia.com"

	// UA de navegador: NSE rechaza clientes que no lo parecen.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	// Las cookies de sesión de NSE caducan en minutos.
	sessionTTL = 5 * time.Minute

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de NSE con warmup de cookies, rate limiting
// conservador y retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter

	mu       sync.Mutex
	warmedAt time.Time
}

// NewClient crea un Client. base vacío usa producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		http: &http.Client{
			Timeout: 5 * time.Second,
			Jar:     jar,
		},
		base: base,
		// NSE no documenta límites y banea agresivo: 2/s con burst 1.
		limiter: rate.NewLimiter(2, 1),
	}
}

// Quote devuelve el último precio negociado de un equity.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	body, err := c.get(ctx, "/api/quote-equity?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("nse.Quote %s: %w", symbol, err)
	}

	last := gjson.GetBytes(body, "priceInfo.lastPrice")
	if !last.Exists() || last.Float() <= 0 {
		return domain.Quote{}, fmt.Errorf("nse.Quote %s: respuesta sin priceInfo.lastPrice", symbol)
	}

	return domain.Quote{
		Symbol: symbol,
		Price:  last.Float(),
		Source: domain.SourceFallback,
		Venue:  "NSE",
		Origin: time.Now(),
	}, nil
}

// Chain devuelve el option chain del vencimiento más cercano del índice y
// el valor spot del subyacente.
func (c *Client) Chain(ctx context.Context, index string) (domain.Chain, float64, error) {
	body, err := c.get(ctx, "/api/option-chain-indices?symbol="+url.QueryEscape(index))
	if err != nil {
		return nil, 0, fmt.Errorf("nse.Chain %s: %w", index, err)
	}

	records := gjson.GetBytes(body, "records")
	spot := records.Get("underlyingValue").Float()
	expiry := records.Get("expiryDates.0").String()
	if spot <= 0 || expiry == "" {
		return nil, 0, fmt.Errorf("nse.Chain %s: respuesta sin records utilizables", index)
	}

	var chain domain.Chain
	records.Get("data").ForEach(func(_, rec gjson.Result) bool {
		if rec.Get("expiryDate").String() != expiry {
			return true
		}
		chain = append(chain, domain.OptionRow{
			Strike:     rec.Get("strikePrice").Float(),
			CEOI:       rec.Get("CE.openInterest").Float(),
			CEOIChange: rec.Get("CE.changeinOpenInterest").Float(),
			CELTP:      rec.Get("CE.lastPrice").Float(),
			PEOI:       rec.Get("PE.openInterest").Float(),
			PEOIChange: rec.Get("PE.changeinOpenInterest").Float(),
			PELTP:      rec.Get("PE.lastPrice").Float(),
		})
		return true
	})
	if len(chain) == 0 {
		return nil, 0, fmt.Errorf("nse.Chain %s: sin strikes para el vencimiento %s", index, expiry)
	}

	sort.Slice(chain, func(i, j int) bool { return chain[i].Strike < chain[j].Strike })
	return chain, spot, nil
}

// get hace un GET autenticado por cookies con rate limiting y retries.
// Un 401/403 invalida la sesión y fuerza re-warmup antes del siguiente intento.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		if err := c.ensureSession(ctx); err != nil {
			if attempt == maxRetries {
				return nil, err
			}
			c.sleep(ctx, attempt)
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			c.invalidateSession()
			slog.Warn("nse: sesión rechazada, re-warmup", "status", resp.StatusCode, "attempt", attempt+1)
			if attempt == maxRetries {
				return nil, fmt.Errorf("session rejected %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			slog.Warn("nse: rate limited", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("exhausted %d retries", maxRetries)
}

// ensureSession calienta las cookies contra la home si la sesión caducó.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.warmedAt) < sessionTTL {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session warmup: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("session warmup: status %d", resp.StatusCode)
	}

	c.warmedAt = time.Now()
	return nil
}

func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.warmedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
