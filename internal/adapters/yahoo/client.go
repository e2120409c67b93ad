// Package yahoo consulta el chart API de Yahoo Finance. Es el último escalón
// de la cadena de precios y la única fuente de velas intradía: los símbolos
// NSE cotizan con sufijo .NS.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://query1.finance.yahoo.com"

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Yahoo Finance con rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client. base vacío usa producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http: &http.Client{Timeout: 5 * time.Second},
		base: base,
		// Yahoo tolera bastante más, pero aquí solo somos fallback.
		limiter: rate.NewLimiter(5, 2),
	}
}

// Quote devuelve el último precio de mercado del símbolo según el meta del
// chart. El timestamp de mercado de Yahoo viaja como origen del dato.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	body, err := c.get(ctx, c.chartPath(symbol, "1m", "1d"))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo.Quote %s: %w", symbol, err)
	}

	meta := gjson.GetBytes(body, "chart.result.0.meta")
	price := meta.Get("regularMarketPrice")
	if !meta.Exists() || !price.Exists() || price.Float() <= 0 {
		return domain.Quote{}, fmt.Errorf("yahoo.Quote %s: respuesta sin regularMarketPrice", symbol)
	}

	origin := time.Now()
	if ts := meta.Get("regularMarketTime"); ts.Exists() && ts.Int() > 0 {
		origin = time.Unix(ts.Int(), 0)
	}

	return domain.Quote{
		Symbol: symbol,
		Price:  price.Float(),
		Source: domain.SourceFallback,
		Venue:  "Yahoo",
		Origin: origin,
	}, nil
}

// Intraday devuelve las velas de la sesión en curso: pide 5 días en velas de
// 3 minutos y recorta a la última fecha de negociación (IST). Las filas sin
// cierre (huecos de Yahoo) se descartan.
func (c *Client) Intraday(ctx context.Context, symbol string) (domain.Series, error) {
	body, err := c.get(ctx, c.chartPath(symbol, "3m", "5d"))
	if err != nil {
		return nil, fmt.Errorf("yahoo.Intraday %s: %w", symbol, err)
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("yahoo.Intraday %s: respuesta sin chart.result", symbol)
	}

	stamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	if len(stamps) == 0 || len(closes) != len(stamps) {
		return nil, fmt.Errorf("yahoo.Intraday %s: arrays de velas incompletos", symbol)
	}

	ist := domain.MarketLocation()
	var series domain.Series
	for i, ts := range stamps {
		if closes[i].Type == gjson.Null || closes[i].Float() <= 0 {
			continue
		}
		candle := domain.Candle{
			TS:    time.Unix(ts.Int(), 0).In(ist),
			Close: closes[i].Float(),
		}
		if i < len(opens) {
			candle.Open = opens[i].Float()
		}
		if i < len(highs) {
			candle.High = highs[i].Float()
		}
		if i < len(lows) {
			candle.Low = lows[i].Float()
		}
		if i < len(volumes) {
			candle.Volume = volumes[i].Float()
		}
		series = append(series, candle)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo.Intraday %s: sin velas utilizables", symbol)
	}

	// Solo la sesión más reciente: la fecha IST de la última vela.
	lastDay := series[len(series)-1].TS.Format("2006-01-02")
	start := len(series) - 1
	for start > 0 && series[start-1].TS.Format("2006-01-02") == lastDay {
		start--
	}
	return series[start:], nil
}

func (c *Client) chartPath(symbol, interval, span string) string {
	return fmt.Sprintf("/v8/finance/chart/%s.NS?interval=%s&range=%s",
		url.PathEscape(symbol), interval, span)
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("yahoo: rate limited", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
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

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
