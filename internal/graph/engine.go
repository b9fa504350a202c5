package graph

import (
	"context"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lineagehub/graphd/internal/logging"
)

// Engine wraps the Durable Store, Cache, ObjectStore, VectorIndex, and
// EmbeddingProvider behind the node/edge/query/traversal/import-export
// operations. VX and EP are optional: when either is
// nil, vectorization is skipped and reported as such rather than failing
// the write.
type Engine struct {
	Store    Store
	Cache    Cache
	Objects   ObjectStore
	VectorIndex VectorIndex
	Embeddings EmbeddingProvider

	EdgeCollection string
}

// New builds an Engine. Objects, VectorIndex, and Embeddings may be nil.
func New(store Store, cache Cache, objects ObjectStore, vx VectorIndex, ep EmbeddingProvider, edgeCollection string) *Engine {
	return &Engine{
		Store:     store,
		Cache:     cache,
		Objects:    objects,
		VectorIndex:  vx,
		Embeddings:   ep,
		EdgeCollection: edgeCollection,
	}
}

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }

// requestID reads the chi-assigned request id out of ctx for per-stage
// dependency timing logs. Empty outside an HTTP request (e.g. tests).
func requestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// stage wraps a single Store/Cache/ObjectStore/VectorIndex/EmbeddingProvider
// round trip with a PerformanceLevel duration log.
func stage(ctx context.Context, dependency, op string, start time.Time, err error) {
	logging.Stage(requestID(ctx), dependency, op, start, err)
}

// HealthCheck pings every configured dependency and reports per-dependency
// status. OS, VX and EP are omitted when not configured rather than
// reported as failing.
func (e *Engine) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{}

	if err := e.Store.Ping(ctx); err != nil {
		status["store"] = "error: " + err.Error()
	} else {
		status["store"] = "ok"
	}

	if err := e.Cache.HealthCheck(ctx); err != nil {
		status["cache"] = "error: " + err.Error()
	} else {
		status["cache"] = "ok"
	}

	if e.Objects != nil {
		if err := e.Objects.HealthCheck(ctx); err != nil {
			status["objects"] = "error: " + err.Error()
		} else {
			status["objects"] = "ok"
		}
	}

	if e.VectorIndex != nil {
		if err := e.VectorIndex.HealthCheck(ctx); err != nil {
			status["vector_index"] = "error: " + err.Error()
		} else {
			status["vector_index"] = "ok"
		}
	}

	if e.Embeddings != nil {
		if err := e.Embeddings.HealthCheck(ctx); err != nil {
			status["embeddings"] = "error: " + err.Error()
		} else {
			status["embeddings"] = "ok"
		}
	}

	return status
}
