// Package priced implementa el daemon de precios compartido: un HTTP server
// mínimo que sirve la última cotización de cada símbolo con un cache corto,
// para que todos los procesos del desk compartan un solo fetch por símbolo.
package priced

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/ports"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultCacheTTL es la ventana en la que un precio servido se considera
// compartible sin refetch.
const DefaultCacheTTL = 2 * time.Second

const shutdownGrace = 5 * time.Second

// metrics agrupa la instrumentación del daemon. Registry propio: varios
// servers en el mismo proceso (tests) no chocan al registrar.
type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	cacheHits prometheus.Counter
	fetchSecs prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intrabot_priced_requests_total",
			Help: "Price requests served, by outcome (hit, fetch, error).",
		}, []string{"outcome"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "intrabot_priced_cache_hits_total",
			Help: "Requests answered from the shared cache.",
		}),
		fetchSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intrabot_priced_fetch_seconds",
			Help:    "Upstream fetch latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
	}
}

type cachedQuote struct {
	quote domain.Quote
	at    time.Time
}

// Server es el daemon de precios: GET /price/{symbol} con cache TTL,
// /health y /metrics.
type Server struct {
	source  ports.QuoteProvider
	ttl     time.Duration
	now     func() time.Time
	started time.Time
	metrics *metrics
	router  *mux.Router

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewServer crea el daemon sobre la cadena de fuentes dada (ttl<=0 →
// DefaultCacheTTL).
func NewServer(source ports.QuoteProvider, ttl time.Duration) *Server {
	return NewServerWithClock(source, ttl, time.Now)
}

// NewServerWithClock crea el daemon con reloj inyectable para tests.
func NewServerWithClock(source ports.QuoteProvider, ttl time.Duration, now func() time.Time) *Server {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &Server{
		source:  source,
		ttl:     ttl,
		now:     now,
		started: now(),
		metrics: newMetrics(),
		cache:   make(map[string]cachedQuote),
	}

	r := mux.NewRouter()
	r.HandleFunc("/price/{symbol}", s.handlePrice).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler expone el router para tests y para el http.Server del main.
func (s *Server) Handler() http.Handler { return s.router }

// Run sirve hasta que el contexto se cancele y apaga con gracia.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("priced listening", "addr", addr, "cache_ttl", s.ttl)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		slog.Info("priced stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type priceResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		s.metrics.requests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing symbol"})
		return
	}

	if quote, ok := s.cached(symbol); ok {
		s.metrics.requests.WithLabelValues("hit").Inc()
		s.metrics.cacheHits.Inc()
		writeJSON(w, http.StatusOK, toResponse(quote))
		return
	}

	start := time.Now()
	quote, err := s.source.Fetch(r.Context(), symbol)
	s.metrics.fetchSecs.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.requests.WithLabelValues("error").Inc()
		slog.Warn("priced: fetch failed", "symbol", symbol, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "price unavailable"})
		return
	}

	s.store(symbol, quote)
	s.metrics.requests.WithLabelValues("fetch").Inc()
	writeJSON(w, http.StatusOK, toResponse(quote))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	size := len(s.cache)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": int(s.now().Sub(s.started).Seconds()),
		"cached":   size,
	})
}

func (s *Server) cached(symbol string) (domain.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[symbol]
	if !ok || s.now().Sub(entry.at) >= s.ttl {
		return domain.Quote{}, false
	}
	return entry.quote, true
}

func (s *Server) store(symbol string, quote domain.Quote) {
	s.mu.Lock()
	s.cache[symbol] = cachedQuote{quote: quote, at: s.now()}
	s.mu.Unlock()
}

func toResponse(q domain.Quote) priceResponse {
	ts := ""
	if !q.Origin.IsZero() {
		ts = q.Origin.UTC().Format(time.RFC3339Nano)
	}
	return priceResponse{
		Symbol:    q.Symbol,
		Price:     q.Price,
		Source:    q.Venue,
		Timestamp: ts,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("priced: write response", "err", err)
	}
}
