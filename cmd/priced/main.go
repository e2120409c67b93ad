// El binario priced es el daemon de precios compartido: una sola sesión
// NSE/Yahoo sirviendo a todos los procesos intrabot de la máquina por HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/intrabot/config"
	"github.com/alejandrodnm/intrabot/internal/adapters/nse"
	"github.com/alejandrodnm/intrabot/internal/adapters/quotes"
	"github.com/alejandrodnm/intrabot/internal/adapters/yahoo"
	"github.com/alejandrodnm/intrabot/internal/priced"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Sin archivo de config el daemon arranca igual con defaults.
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "err", err, "path", *configPath)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *listen != "" {
		cfg.Service.Listen = *listen
	}
	setupLogger(cfg.Log)

	ttl := time.Duration(cfg.Service.CacheTTLSecs) * time.Second
	slog.Info("priced starting",
		"listen", cfg.Service.Listen,
		"cache_ttl", ttl,
	)

	// El daemon nunca se llama a sí mismo: va directo a NSE con Yahoo detrás.
	source := quotes.NewSource(nse.NewClient(""), yahoo.NewClient(""))
	server := priced.NewServer(source, ttl)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Run(ctx, cfg.Service.Listen); err != nil {
		slog.Error("priced exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("priced stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
