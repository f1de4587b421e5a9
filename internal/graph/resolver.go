// Package graph serves the showrunner GraphQL API through gqlgen, over HTTP and graphql-transport-ws.
package graph

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/showrunner/internal/config"
	"github.com/raphaelgruber/showrunner/internal/db"
	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/service"
)

// Resolver is the root resolver with all dependencies.
type Resolver struct {
	db      *db.Client
	series  *service.SeriesService
	stories *service.StoryService
	events  *service.Broadcaster
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewResolver connects to the database and the LLM provider and wires the services.
func NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resolver, error) {
	// Create metrics collector for runtime statistics
	mc := metrics.NewCollector()

	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger, mc)
	if err != nil {
		return nil, err
	}

	if err := dbClient.InitSchema(ctx); err != nil {
		dbClient.Close(ctx)
		return nil, err
	}

	model, err := llm.NewModel(cfg, mc)
	if err != nil {
		dbClient.Close(ctx)
		return nil, err
	}
	logger.Info("episode writer ready", "provider", cfg.LLMProvider, "model", model.Model())

	r := NewResolverWith(dbClient, model, mc, logger)
	r.db = dbClient
	return r, nil
}

// NewResolverWith wires the services on top of an existing store and writer.
func NewResolverWith(store service.Store, writer service.Writer, mc *metrics.Collector, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.NewCollector()
	}
	events := service.NewBroadcaster()
	return &Resolver{
		series:  service.NewSeriesService(store, writer, events, mc, logger),
		stories: service.NewStoryService(store, logger),
		events:  events,
		metrics: mc,
		logger:  logger,
	}
}

// Close closes all connections.
func (r *Resolver) Close(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close(ctx)
	}
	return nil
}

// WipeData deletes all data from the database. Use for testing only.
func (r *Resolver) WipeData(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.WipeData(ctx)
}
