// Command server starts the review extraction HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/profescore/review-extractor/internal/adapter/ai/gemini"
	httpserver "github.com/profescore/review-extractor/internal/adapter/httpserver"
	"github.com/profescore/review-extractor/internal/adapter/observability"
	"github.com/profescore/review-extractor/internal/adapter/repo/postgres"
	"github.com/profescore/review-extractor/internal/app"
	"github.com/profescore/review-extractor/internal/config"
	"github.com/profescore/review-extractor/internal/service/keyring"
	"github.com/profescore/review-extractor/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	keys, err := keyring.New(cfg.GeminiAPIKeys())
	if err != nil {
		slog.Error("no generation credentials configured", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("credential ring ready", slog.Int("keys", keys.Len()))

	rules, err := usecase.LoadRules(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to load sanitizer rules", slog.Any("error", err))
		os.Exit(1)
	}

	gen := gemini.New(cfg, keys.Current())
	extractor := usecase.NewExtractor(gen, usecase.NewSanitizer(rules), cfg.MaxOutputTokens)
	malformedBO, serviceBO := cfg.GetBackoffConfig()
	orch := usecase.NewOrchestrator(extractor, keys, cfg.GeminiModels, cfg.MaxAttempts, malformedBO, serviceBO)
	analyzeSvc := usecase.NewAnalyzeService(orch, cfg.BatchSize, cfg.MinMessageLen)
	saveSvc := usecase.NewSaveService(postgres.NewCatalogRepo(pool), cfg.GeneralSubjectName, cfg.SystemAuthorID)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	srv := httpserver.NewServer(cfg, analyzeSvc, saveSvc, dbCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
