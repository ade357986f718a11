package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polypaper/config"
	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/adapters/storage"
	"github.com/alejandrodnm/polypaper/internal/application/engine/paper"
	"github.com/alejandrodnm/polypaper/internal/application/lifecycle"
	"github.com/alejandrodnm/polypaper/internal/application/scanner"
	"github.com/alejandrodnm/polypaper/internal/application/settlement"
	"github.com/alejandrodnm/polypaper/internal/domain"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file (.yaml or .toml)")
	once := flag.Bool("once", false, "run one scan cycle and exit (default mode)")
	scan := flag.Bool("scan", false, "alias of -once")
	run := flag.Bool("run", false, "run scan cycles continuously until Ctrl+C or a STOP file")
	stats := flag.Bool("stats", false, "print performance statistics and exit")
	positions := flag.Bool("positions", false, "print open positions and exit")
	history := flag.Bool("history", false, "print closed positions and recent cycles and exit")
	demoPoly := flag.Bool("demo-poly", false, "use synthetic Polymarket data")
	demoKalshi := flag.Bool("demo-kalshi", false, "use synthetic Kalshi data")
	noPoly := flag.Bool("no-poly", false, "disable Polymarket")
	noKalshi := flag.Bool("no-kalshi", false, "disable Kalshi")
	seed := flag.Uint64("seed", 0, "seed for synthetic sources (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables every cycle in -run mode (default: compact 1-line)")
	stopFile := flag.String("stop-file", "STOP", "file whose presence stops -run")
	flag.Parse()

	if *run && (*once || *scan) {
		slog.Error("-run cannot be combined with -once/-scan")
		os.Exit(2)
	}

	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *demoPoly {
		cfg.Sources.Polymarket.Demo = true
	}
	if *demoKalshi {
		cfg.Sources.Kalshi.Demo = true
	}
	if *noPoly {
		cfg.Sources.Polymarket.Enabled = false
	}
	if *noKalshi {
		cfg.Sources.Kalshi.Enabled = false
	}
	if *seed != 0 {
		cfg.Sources.Seed = *seed
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	sources, err := buildSources(cfg)
	if err != nil {
		slog.Error("failed to configure sources", "err", err)
		os.Exit(1)
	}

	settler, err := settlement.New(settlement.Config{FeeRate: cfg.Trading.FeeRate})
	if err != nil {
		slog.Error("invalid settlement config", "err", err)
		os.Exit(1)
	}

	manager := lifecycle.New(lifecycle.Config{
		PositionSize:  cfg.Trading.PositionSize,
		MaxPositions:  cfg.Trading.MaxPositions,
		WinThreshold:  cfg.Trading.WinThreshold,
		LossThreshold: cfg.Trading.LossThreshold,
	}, store, settler)

	s := scanner.New(scanner.Config{
		Filter: scanner.FilterConfig{
			MinPrice:     cfg.Trading.MinPrice,
			MaxPrice:     cfg.Trading.MaxPrice,
			MinLiquidity: cfg.Trading.MinLiquidity,
			MinVolume24h: cfg.Trading.MinVolume24h,
		},
		FetchTimeout: cfg.FetchTimeout(),
	}, sources...)

	console := notify.NewConsole(*table || !*run)
	pe := paper.New(paper.Config{
		Interval: cfg.ScanInterval(),
		StopFile: *stopFile,
	}, s, manager, store, console).WithLookups(sources...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *stats:
		printStats(ctx, pe, console, cfg.Trading.FeeRate)
		return
	case *positions:
		printPositions(ctx, pe, console)
		return
	case *history:
		printHistory(ctx, pe, console)
		return
	}

	platforms := make([]domain.Platform, len(sources))
	for i, src := range sources {
		platforms[i] = src.Platform()
	}
	slog.Info("paper trader starting",
		"config", path,
		"sources", platforms,
		"polymarket_demo", cfg.Sources.Polymarket.Demo,
		"kalshi_demo", cfg.Sources.Kalshi.Demo,
		"dsn", cfg.Storage.DSN,
	)
	console.PrintBanner(platforms, cfg.Trading.MinPrice, cfg.Trading.MaxPrice,
		cfg.Trading.PositionSize, cfg.Trading.MaxPositions)

	if *run {
		if err := pe.Run(ctx); err != nil {
			slog.Error("paper engine exited with error", "err", err)
			os.Exit(1)
		}
		// Contexto nuevo: ctx ya puede estar cancelado por la señal
		printStats(context.Background(), pe, console, cfg.Trading.FeeRate)
		slog.Info("paper trader stopped cleanly")
		return
	}

	runOnce(ctx, pe, console)
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
