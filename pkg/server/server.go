// Package server provides the public entry point for initializing the
// graphd server. This package exists in pkg/ (not internal/) so that a
// wrapping deployment can import it and compose the handler with its own
// middleware.
package server

import (
	"context"
	"fmt"

	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/internal/api"
	"github.com/lineagehub/graphd/internal/api/handlers"
	gdauth "github.com/lineagehub/graphd/internal/auth"
	"github.com/lineagehub/graphd/internal/cache"
	"github.com/lineagehub/graphd/internal/config"
	"github.com/lineagehub/graphd/internal/embedding"
	"github.com/lineagehub/graphd/internal/graph"
	"github.com/lineagehub/graphd/internal/graphstore/memstore"
	"github.com/lineagehub/graphd/internal/graphstore/postgres"
	"github.com/lineagehub/graphd/internal/logging"
	"github.com/lineagehub/graphd/internal/objectstore"
	"github.com/lineagehub/graphd/internal/telemetry"
	"github.com/lineagehub/graphd/internal/vectorindex"
)

// Server holds the initialized graphd instance.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Engine is the graph engine. Exposed for embedding/tests.
	Engine *graph.Engine

	// AuthChain is the pluggable authentication provider chain.
	AuthChain *gdauth.ProviderChain

	// Config is the loaded configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc flushes telemetry on graceful shutdown.
	ShutdownFunc func(context.Context) error

	closers []func() error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)

	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var closers []func() error

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build durable store: %w", err)
	}
	closers = append(closers, store.Close)
	if cfg.InitDB {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate durable store: %w", err)
		}
	}
	log.Info().Msg("durable store ready")

	kvCache, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}
	log.Info().Msg("cache ready")

	objStore := buildObjectStore(ctx, cfg)
	log.Info().Str("kind", objStore.Kind()).Msg("object store ready")

	var vx graph.VectorIndex
	if cfg.Vector.URL != "" {
		qv, err := vectorindex.NewQdrantIndex(cfg.Vector.URL, cfg.Vector.APIKey)
		if err != nil {
			log.Warn().Err(err).Msg("vector index init failed, continuing without it")
		} else {
			vx = qv
			closers = append(closers, qv.Close)
			log.Info().Msg("vector index ready")
		}
	}

	var ep graph.EmbeddingProvider
	if cfg.Embedding.Endpoint != "" {
		ep = embedding.NewHTTPDriver(cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.APIKey)
		log.Info().Msg("embedding provider ready")
	}

	engine := graph.New(store, kvCache, objStore, vx, ep, cfg.Vector.EdgeCollection)

	authChain := gdauth.NewProviderChain()
	oidc := gdauth.NewOIDCProvider(cfg.Auth.OIDCDiscoveryURL, cfg.Auth.OIDCClientID)
	if oidc.Enabled() {
		authChain.RegisterProvider(oidc)
	}

	gh := handlers.NewGraphHandlers(engine)
	ah := handlers.NewAuthHandlers(cfg.Auth.OIDCDiscoveryURL, cfg.Auth.OIDCClientID, cfg.Auth.OIDCClientSecret, cfg.Auth.OIDCRedirectURL)

	router := api.NewRouter(cfg, gh, ah, authChain)

	return &Server{
		Handler:   router,
		Engine:    engine,
		AuthChain:  authChain,
		Config:    cfg,
		Port:     cfg.Port,
		ShutdownFunc: shutdown,
		closers:   closers,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (graph.Store, error) {
	if cfg.Database.URL == "" {
		log.Warn().Msg("DATABASE_URL not set, falling back to in-memory store")
		return memstore.New(), nil
	}
	return postgres.New(ctx, cfg.Database.URL)
}

func buildCache(ctx context.Context, cfg *config.Config) (graph.Cache, error) {
	if cfg.Cache.URL == "" {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg.Cache.URL)
}

func buildObjectStore(ctx context.Context, cfg *config.Config) graph.ObjectStore {
	if cfg.Objects.Bucket == "" {
		return objectstore.NewLocalStore(cfg.Objects.LocalPath)
	}
	s3store, err := objectstore.NewS3Store(ctx, cfg.Objects.Bucket, cfg.Objects.Region, "")
	if err != nil {
		log.Warn().Err(err).Msg("s3 object store init failed, falling back to local")
		return objectstore.NewLocalStore(cfg.Objects.LocalPath)
	}
	return s3store
}

// Shutdown closes the durable store and vector index connections and
// flushes telemetry. The cache client is not closed.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			log.Warn().Err(err).Msg("error closing dependency")
		}
	}
	if s.ShutdownFunc != nil {
		return s.ShutdownFunc(ctx)
	}
	return nil
}
