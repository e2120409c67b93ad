// El binario intrabot es el CLI de la mesa intradía: recomendación puntual
// (advise), panel en vivo (watch), scanner de watchlist (scan) y libro de
// paper trading (paper open/close/trades/report).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/intrabot/config"
	"github.com/alejandrodnm/intrabot/internal/adapters/ml"
	"github.com/alejandrodnm/intrabot/internal/adapters/notify"
	"github.com/alejandrodnm/intrabot/internal/adapters/nse"
	"github.com/alejandrodnm/intrabot/internal/adapters/quotes"
	"github.com/alejandrodnm/intrabot/internal/adapters/storage"
	"github.com/alejandrodnm/intrabot/internal/adapters/yahoo"
	"github.com/alejandrodnm/intrabot/internal/desk"
	"github.com/alejandrodnm/intrabot/internal/domain"
	"github.com/alejandrodnm/intrabot/internal/feed"
	"github.com/alejandrodnm/intrabot/internal/paper"
	"github.com/alejandrodnm/intrabot/internal/ports"
	"github.com/alejandrodnm/intrabot/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	tierName := flag.String("tier", "", "subscription tier: FREE|BASIC|PRO|ELITE (overrides config)")
	direction := flag.String("direction", "", "trade direction: LONG|SHORT (overrides config)")
	once := flag.Bool("once", false, "scan mode: run one batch and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Sin archivo de config el CLI arranca igual con defaults.
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
	if *tierName != "" {
		cfg.Tier.Name = *tierName
	}
	if *direction != "" {
		cfg.Scanner.Direction = *direction
	}
	setupLogger(cfg.Log)

	mode := flag.Arg(0)
	if mode == "" {
		printUsage()
		os.Exit(2)
	}

	tier := config.ParseTier(cfg.Tier.Name)

	slog.Info("intrabot starting",
		"mode", mode,
		"tier", tier,
		"direction", cfg.Scanner.Direction,
		"strategy", cfg.Scanner.Strategy,
		"config", *configPath,
	)

	ledger, err := openLedger(cfg.Storage)
	if err != nil {
		slog.Error("failed to open trade ledger", "err", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer ledger.Shutdown()

	engine := paper.New(ledger, domain.RiskLimits{
		MaxTrades:    cfg.Risk.MaxTrades,
		MaxDailyLoss: cfg.Risk.MaxDailyLoss,
	})

	// Cadena de precio: daemon compartido primero, NSE y Yahoo directos detrás.
	nseClient := nse.NewClient("")
	yahooClient := yahoo.NewClient("")
	service := quotes.NewServiceClient(cfg.Feed.ServiceBase, cfg.ServiceTimeout())
	source := quotes.NewSource(service, nseClient, yahooClient)

	priceFeed := feed.New(source)
	series := feed.NewSeriesCache(yahooClient, cfg.SeriesTTL())
	options := feed.NewOptionsCache(nseClient, cfg.Options.ATMWidth, feed.DefaultOptionsTTL)

	// El scorer es consultivo y de pago: solo existe si el config lo enciende
	// y el tier lo incluye.
	var scorer ports.SetupScorer
	if cfg.ML.Enabled && tier.Caps().MLEnabled {
		scorer = ml.NewScorer(cfg.ML.WeightsPath)
	}

	notifier := notify.NewConsole()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case "advise":
		d := buildDesk(cfg, tier, priceFeed, series, options, engine, scorer)
		runAdvise(ctx, d, notifier, flag.Arg(1))
	case "watch":
		d := buildDesk(cfg, tier, priceFeed, series, options, engine, scorer)
		runWatch(ctx, d, notifier, flag.Arg(1))
	case "scan":
		runScan(ctx, cfg, tier, priceFeed, series, options, scorer, notifier, *once)
	case "paper":
		runPaper(ctx, engine, notifier, flag.Args()[1:])
	default:
		slog.Error("unknown mode", "mode", mode)
		printUsage()
		os.Exit(2)
	}

	slog.Info("intrabot stopped cleanly")
}

func buildDesk(cfg *config.Config, tier config.Tier, f *feed.Feed, series *feed.SeriesCache, options *feed.OptionsCache, engine *paper.Engine, scorer ports.SetupScorer) *desk.Desk {
	return desk.New(desk.Options{
		Tier:         tier,
		Direction:    domain.ParseDirection(cfg.Scanner.Direction),
		Strategy:     domain.ParseStrategy(cfg.Scanner.Strategy),
		Index:        cfg.Options.Index,
		PollInterval: cfg.PollInterval(),
	}, f, series, options, engine, scorer)
}

func runScan(ctx context.Context, cfg *config.Config, tier config.Tier, f *feed.Feed, series *feed.SeriesCache, options *feed.OptionsCache, scorer ports.SetupScorer, notifier *notify.Console, once bool) {
	watchlist := tier.CapSymbols(config.DailyWatchlist(
		domain.TradingDay(time.Now()),
		config.Universe(cfg.Scanner.Universe),
		cfg.Scanner.WatchlistSize,
	))
	dir := domain.ParseDirection(cfg.Scanner.Direction)

	s := scanner.New(scanner.Config{
		Symbols:       watchlist,
		Direction:     dir,
		Strategy:      domain.ParseStrategy(cfg.Scanner.Strategy),
		Index:         cfg.Options.Index,
		Workers:       cfg.Scanner.Workers,
		QuoteInterval: cfg.ScanPriceTTL(),
	}, f, series, options, scorer, notifier)

	slog.Info("daily watchlist resolved",
		"universe", cfg.Scanner.Universe,
		"symbols", watchlist,
		"tier", tier,
	)

	if once {
		results := s.Scan(ctx, watchlist, dir)
		if err := notifier.PrintScan(ctx, results); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	// El tier pone el suelo del periodo: el config puede ir más lento que el
	// refresh del tier, nunca más rápido.
	interval := cfg.ScanInterval()
	if floor := tier.Refresh(); interval < floor {
		interval = floor
	}
	if err := s.Run(ctx, interval); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}
}

// openLedger abre el backend de persistencia configurado.
func openLedger(cfg config.StorageConfig) (ports.TradeLedger, error) {
	switch cfg.Backend {
	case "csv":
		return storage.NewCSVLedger(cfg.CSVDir)
	default:
		return storage.NewSQLiteLedger(cfg.DSN)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `uso: intrabot [flags] <modo> [args]

modos:
  advise SYMBOL                              recomendación puntual de un símbolo
  watch SYMBOL                               panel en vivo (refresh según tier)
  scan                                       scanner del watchlist diario (-once para un batch)
  paper open SYMBOL BUY|SELL PRICE QTY [STRATEGY] [NOTE...]
  paper close TRADE_ID EXIT_PRICE
  paper trades                               trades del día, abiertos primero
  paper report                               resumen agregado del día

flags:
`)
	flag.PrintDefaults()
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
