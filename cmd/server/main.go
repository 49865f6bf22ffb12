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

	"github.com/joho/godotenv"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/run"
	"github.com/aluiziolira/go-sitemirror/server"
)

func main() {
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	addrDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("SITEMIRROR_ADDR"); ok {
		addrDefault = value
	}
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

	addr := flag.String("addr", addrDefault, "HTTP listen address")
	outputDir := flag.String("out", outputDefault, "Output directory")
	maxPages := flag.Int("pages", pagesDefault, "Default maximum pages per run (0 = no cap)")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "Per-request timeout")
	pageDelay := flag.Duration("page-delay", defaultCfg.PageDelay, "Delay between page downloads")
	sitemapDelay := flag.Duration("sitemap-delay", defaultCfg.SitemapDelay, "Delay between sitemap fetches")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.ListenAddr = *addr
	cfg.OutputDir = *outputDir
	cfg.MaxPages = *maxPages
	cfg.Timeout = *timeout
	cfg.PageDelay = *pageDelay
	cfg.SitemapDelay = *sitemapDelay
	cfg.Verbose = *verbose

	m := metrics.New()
	ctrl := run.NewController(cfg.FeedBuffer, slog.Default())
	srv := server.New(cfg, ctrl, m, nil)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("control server listening", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	if err := ctrl.Stop(); err == nil {
		slog.Info("stopping active run")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.Any("error", err))
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
