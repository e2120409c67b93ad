package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/intrabot/internal/adapters/notify"
	"github.com/alejandrodnm/intrabot/internal/desk"
)

func runAdvise(ctx context.Context, d *desk.Desk, notifier *notify.Console, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		slog.Error("advise mode requires a symbol")
		printUsage()
		os.Exit(2)
	}

	advice, err := d.Advise(ctx, symbol)
	if err != nil {
		slog.Error("advise failed", "symbol", symbol, "err", err)
		os.Exit(1)
	}
	if err := notifier.PrintAdvice(ctx, advice); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func runWatch(ctx context.Context, d *desk.Desk, notifier *notify.Console, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		slog.Error("watch mode requires a symbol")
		printUsage()
		os.Exit(2)
	}

	interval := d.Tier().Refresh()
	slog.Info("watch started — press Ctrl+C or create STOP file to exit",
		"symbol", symbol,
		"refresh", interval,
		"tier", d.Tier(),
		"session", d.ID(),
	)

	watchCycle(ctx, d, notifier, symbol)

	stopFile := "STOP"
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped (signal)", "symbol", symbol)
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP file detected — exiting watch", "symbol", symbol)
				os.Remove(stopFile)
				return
			}
			watchCycle(ctx, d, notifier, symbol)
		}
	}
}

// watchCycle pinta un panel; si el ciclo falla se mantiene el último y se
// reintenta en el siguiente tick.
func watchCycle(ctx context.Context, d *desk.Desk, notifier *notify.Console, symbol string) {
	advice, err := d.Advise(ctx, symbol)
	if err != nil {
		slog.Warn("watch: advise failed, retrying next cycle", "symbol", symbol, "err", err)
		return
	}
	if err := notifier.PrintAdvice(ctx, advice); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}
