// Package main provides the GraphQL server for showrunner.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/showrunner/internal/config"
	"github.com/raphaelgruber/showrunner/internal/graph"
	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/server"
	"github.com/raphaelgruber/showrunner/internal/service"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	memory := flag.Bool("memory", false, "keep data in memory instead of SurrealDB")
	flag.Parse()

	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("starting showrunner-server",
		"port", cfg.ServerPort,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"memory", *memory,
	)

	resolver, err := newResolver(cfg, *memory, logger)
	if err != nil {
		logger.Error("failed to create resolver", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := resolver.Close(context.Background()); err != nil {
			logger.Error("failed to close resolver", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("SHOWRUNNER_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := resolver.WipeData(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.ServerPort, graph.NewHandler(resolver, cfg.APIToken, 10*time.Second), cfg.APIToken, logger)
	srv.Setup()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newResolver(cfg config.Config, memory bool, logger *slog.Logger) (*graph.Resolver, error) {
	if !memory {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return graph.NewResolver(ctx, cfg, logger)
	}

	mc := metrics.NewCollector()
	model, err := llm.NewModel(cfg, mc)
	if err != nil {
		return nil, err
	}
	return graph.NewResolverWith(service.NewMemoryStore(), model, mc, logger), nil
}
