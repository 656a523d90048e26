package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/fdscrape/config"
	"github.com/aluiziolira/fdscrape/models"
	"github.com/aluiziolira/fdscrape/scraper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// load .env if present, silently ignore if not
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("FDSCRAPE_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid FDSCRAPE_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	rootDefault := defaultCfg.DownloadRoot
	if value, ok := config.EnvString("FDSCRAPE_ROOT"); ok {
		rootDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("FDSCRAPE_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	catalogURL := flag.String("catalog-url", defaultCfg.CatalogURL, "Catalog root listing URL")
	maxPages := flag.Int("pages", pagesDefault, "Safety ceiling on catalog pages to crawl")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Network connect timeout (seconds)")
	onlyApp := flag.String("app", "", "Process only the app with this display name")
	retryIncomplete := flag.Bool("retry-incomplete", false, "Re-enter existing workspaces that lack an unpacked src directory")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	logFile := flag.String("log", "", "Append logs to a file instead of stdout")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	root := rootDefault
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	logger, level, err := newLogger(*verbose, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.CatalogURL = *catalogURL
	cfg.MaxPages = *maxPages
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.DownloadRoot = root
	cfg.OnlyApp = *onlyApp
	cfg.RetryIncomplete = *retryIncomplete
	cfg.Verbose = *verbose
	cfg.LogFile = *logFile
	cfg.MetricsAddr = *metricsAddr
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("catalog_url", cfg.CatalogURL),
		slog.String("download_root", cfg.DownloadRoot),
		slog.Int("pages", cfg.MaxPages),
	)

	s, err := scraper.New(cfg, logger)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, cleaning up current download")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, runErr := s.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if runErr != nil {
		slog.Error("scraping failed", slog.Any("error", runErr))
		os.Exit(1)
	}

	printSummary(result, cfg.DownloadRoot)
}

func printSummary(result *models.RunResult, root string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Pages:         %d\n", result.Pages)
	fmt.Printf("  Apps seen:     %d\n", result.Apps)
	fmt.Printf("  Downloaded:    %d\n", result.Downloaded)
	fmt.Printf("  Skipped:       %d\n", result.Skipped)
	fmt.Printf("  No rating:     %d\n", result.NoRating)
	fmt.Printf("  No source:     %d\n", result.NoSource)
	fmt.Printf("  Soft errors:   %d\n", result.SoftErrors)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Download root: %s\n", root)
	fmt.Println(separator)
}

func newLogger(verbose bool, logFile string) (*slog.Logger, *slog.LevelVar, error) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handler = slog.NewJSONHandler(f, opts)
	case isTerminal(os.Stdout):
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
