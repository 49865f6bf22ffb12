package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/mirror"
	"github.com/aluiziolira/go-sitemirror/run"
	"github.com/aluiziolira/go-sitemirror/sitemap"
)

func main() {
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	outputDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("SITEMIRROR_OUTPUT"); ok {
		outputDefault = value
	}
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("SITEMIRROR_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SITEMIRROR_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	userAgentDefault := defaultCfg.UserAgent
	if value, ok := config.EnvString("SITEMIRROR_USER_AGENT"); ok {
		userAgentDefault = value
	}
	timeoutDefault := defaultCfg.Timeout
	if value, ok, err := config.EnvDuration("SITEMIRROR_TIMEOUT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SITEMIRROR_TIMEOUT: %v\n", err)
		os.Exit(1)
	} else if ok {
		timeoutDefault = value
	}

	targetURL := flag.String("url", "", "Target site URL (required)")
	mode := flag.String("mode", string(config.ModeMirror), "Run mode: mirror or sitemaps")
	maxPages := flag.Int("pages", pagesDefault, "Maximum pages to download (0 = no cap)")
	outputDir := flag.String("out", outputDefault, "Output directory")
	timeout := flag.Duration("timeout", timeoutDefault, "Per-request timeout")
	pageDelay := flag.Duration("page-delay", defaultCfg.PageDelay, "Delay between page downloads")
	sitemapDelay := flag.Duration("sitemap-delay", defaultCfg.SitemapDelay, "Delay between sitemap fetches")
	userAgent := flag.String("user-agent", userAgentDefault, "User-Agent header")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *targetURL == "" {
		fmt.Fprintln(os.Stderr, "usage: sitemirror -url=<URL> [-mode=mirror|sitemaps] [-pages=N] [-out=DIR]")
		os.Exit(1)
	}

	baseURL, err := config.NormalizeBaseURL(*targetURL)
	if err != nil {
		slog.Error("invalid target URL", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Mode = config.Mode(*mode)
	cfg.MaxPages = *maxPages
	cfg.OutputDir = *outputDir
	cfg.Timeout = *timeout
	cfg.PageDelay = *pageDelay
	cfg.SitemapDelay = *sitemapDelay
	cfg.UserAgent = *userAgent
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting run",
		slog.String("base_url", cfg.BaseURL),
		slog.String("mode", string(cfg.Mode)),
		slog.Int("pages", cfg.MaxPages),
		slog.String("out", cfg.OutputDir),
	)

	m := metrics.New()
	ctrl := run.NewController(cfg.FeedBuffer, nil)

	r, err := ctrl.Start(jobFor(cfg, m, nil))
	if err != nil {
		slog.Error("start run", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := ctrl.Stop(); err == nil {
			slog.Info("shutdown signal received, stopping at next checkpoint")
		}
	}()

	start := time.Now()
	for event := range r.Events() {
		switch event.Level {
		case "error":
			slog.Error(event.Message)
		case "warn":
			slog.Warn(event.Message)
		default:
			slog.Info(event.Message)
		}
	}

	outcome, _ := r.Outcome()
	slog.Info("run finished",
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	if outcome == run.OutcomeFailed {
		os.Exit(1)
	}
}

func jobFor(cfg *config.Config, m *metrics.Metrics, transport http.RoundTripper) run.Job {
	return func(ctx context.Context, feed *run.Feed) error {
		switch cfg.Mode {
		case config.ModeSitemaps:
			client, err := fetch.New(cfg, m, transport)
			if err != nil {
				return err
			}
			return sitemap.Archive(ctx, cfg, client, m, feed)
		default:
			return mirror.Mirror(ctx, cfg, m, feed, transport)
		}
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
