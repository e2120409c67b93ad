package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alejandrodnm/intrabot/internal/adapters/notify"
	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/paper"
)

// runPaper despacha los subcomandos del libro de paper trading.
func runPaper(ctx context.Context, engine *paper.Engine, notifier *notify.Console, args []string) {
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	switch args[0] {
	case "open":
		runPaperOpen(ctx, engine, args[1:])
	case "close":
		runPaperClose(ctx, engine, args[1:])
	case "trades":
		trades, err := engine.Trades(ctx)
		if err != nil {
			slog.Error("failed to load trades", "err", err)
			os.Exit(1)
		}
		if err := notifier.PrintTrades(ctx, trades); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	case "report":
		report, err := engine.DayReport(ctx)
		if err != nil {
			slog.Error("failed to build day report", "err", err)
			os.Exit(1)
		}
		if err := notifier.PrintDayReport(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	default:
		slog.Error("unknown paper subcommand", "cmd", args[0])
		printUsage()
		os.Exit(2)
	}
}

// runPaperOpen abre un trade manual: SYMBOL BUY|SELL PRICE QTY [STRATEGY] [NOTE...]
func runPaperOpen(ctx context.Context, engine *paper.Engine, args []string) {
	if len(args) < 4 {
		slog.Error("paper open requires SYMBOL SIDE PRICE QTY")
		printUsage()
		os.Exit(2)
	}

	symbol := args[0]
	side := domain.Side(strings.ToUpper(strings.TrimSpace(args[1])))
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		slog.Error("invalid entry price", "value", args[2], "err", err)
		os.Exit(2)
	}
	qty, err := strconv.Atoi(args[3])
	if err != nil {
		slog.Error("invalid quantity", "value", args[3], "err", err)
		os.Exit(2)
	}
	strategy := string(domain.StrategyORB)
	if len(args) > 4 {
		strategy = strings.ToUpper(args[4])
	}
	note := ""
	if len(args) > 5 {
		note = strings.Join(args[5:], " ")
	}

	// El bias de opciones queda vacío en aperturas manuales: no hay contexto
	// de chain en este camino.
	rec, err := engine.OpenTrade(ctx, symbol, side, price, qty, strategy, "", note)
	if err != nil {
		slog.Error("open trade rejected", "symbol", symbol, "err", err)
		os.Exit(1)
	}

	fmt.Printf("✅ trade abierto: %s %s %s ₹%.2f x%d (%s)\n",
		rec.TradeID, rec.Side, rec.Symbol, rec.EntryPrice, rec.Quantity, rec.Strategy)
}

// runPaperClose cierra un trade: TRADE_ID EXIT_PRICE
func runPaperClose(ctx context.Context, engine *paper.Engine, args []string) {
	if len(args) < 2 {
		slog.Error("paper close requires TRADE_ID EXIT_PRICE")
		printUsage()
		os.Exit(2)
	}

	tradeID := strings.TrimSpace(args[0])
	exit, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		slog.Error("invalid exit price", "value", args[1], "err", err)
		os.Exit(2)
	}

	rec, err := engine.CloseTrade(ctx, tradeID, exit)
	if err != nil {
		slog.Error("close trade failed", "trade_id", tradeID, "err", err)
		os.Exit(1)
	}

	fmt.Printf("✅ trade cerrado: %s %s → PnL ₹%+.2f\n", rec.TradeID, rec.Symbol, rec.PnL)
}
