package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lineagehub/graphd/internal/api/handlers"
	"github.com/lineagehub/graphd/internal/api/middleware"
	"github.com/lineagehub/graphd/internal/auth"
	"github.com/lineagehub/graphd/internal/config"
	"github.com/lineagehub/graphd/pkg/contracts"
)

// NewRouter builds the full HTTP surface per a closed pattern
// enumeration: graph CRUD/query/traverse/export/import under `/:org`,
// plus `/orgs` and `/auth/callback`.
func NewRouter(cfg *config.Config, gh *handlers.GraphHandlers, ah *handlers.AuthHandlers, authChain contracts.AuthProviderChain) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)

	if authChain != nil {
		authMW := middleware.NewAuthMiddleware(authChain)
		r.Use(authMW.Handler)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:  corsOrigins(cfg),
		AllowedMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:  []string{"X-Request-Id", "X-Node-Cache"},
		AllowCredentials: true,
		MaxAge:      300,
	}))

	r.Get("/health", healthHandler(gh))
	r.Get("/version", versionHandler(cfg))
	r.Get("/orgs", ah.ListOrgs)
	r.Get("/auth/callback", ah.Callback)

	r.Route("/{org}", func(r chi.Router) {
		r.Use(middleware.OrgFromPath)

		r.Route("/nodes", func(r chi.Router) {
			r.With(RequireLevel(auth.LevelRead)).Get("/", gh.ListNodes)
			r.With(RequireLevel(auth.LevelWrite)).Post("/", gh.CreateNode)
			r.Route("/{id}", func(r chi.Router) {
				r.With(RequireLevel(auth.LevelRead)).Get("/", gh.GetNode)
				r.With(RequireLevel(auth.LevelWrite)).Put("/", gh.UpdateNode)
				r.With(RequireLevel(auth.LevelWrite)).Delete("/", gh.DeleteNode)
			})
		})

		r.With(RequireLevel(auth.LevelRead)).Get("/edges", gh.ListEdges)
		r.With(RequireLevel(auth.LevelWrite)).Post("/edge", gh.CreateEdge)
		r.Route("/edge/{id}", func(r chi.Router) {
			r.With(RequireLevel(auth.LevelRead)).Get("/", gh.GetEdge)
			r.With(RequireLevel(auth.LevelWrite)).Put("/", gh.UpdateEdge)
			r.With(RequireLevel(auth.LevelWrite)).Patch("/", gh.UpdateEdge)
			r.With(RequireLevel(auth.LevelWrite)).Delete("/", gh.DeleteEdge)
		})

		r.With(RequireLevel(auth.LevelRead)).Post("/query", gh.Query)
		r.With(RequireLevel(auth.LevelRead)).Post("/traverse", gh.Traverse)
		r.With(RequireLevel(auth.LevelRead)).Get("/metadata/export", gh.Export)
		r.With(RequireLevel(auth.LevelWrite)).Post("/metadata/import", gh.Import)
	})

	return r
}

func corsOrigins(cfg *config.Config) []string {
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORS.AllowedOrigins
}

// healthHandler pings every configured dependency (DS/KV/OS/VX/EP) through
// the engine and reports per-dependency status alongside overall health.
func healthHandler(gh *handlers.GraphHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps := gh.Engine.HealthCheck(r.Context())

		status := "healthy"
		for _, v := range deps {
			if v != "ok" {
				status = "degraded"
				break
			}
		}
		if status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"service":   "graphd",
			"dependencies": deps,
		})
	}
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": cfg.Version, "service": "graphd"})
	}
}
