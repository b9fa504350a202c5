package graph

import "context"

// Store is the durable relational store (DS). All methods are already
// org-scoped by the caller; implementations must still filter by org_id
// defensively.
type Store interface {
	NodeStore
	EdgeStore

	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
}

type NodeStore interface {
	GetNode(ctx context.Context, org, id string) (*Node, error)
	ListNodes(ctx context.Context, org string, filter NodeFilter) ([]Node, int, error)
	UpsertNode(ctx context.Context, n *Node) error
	DeleteNode(ctx context.Context, org, id string) error
}

type EdgeStore interface {
	GetEdge(ctx context.Context, org, id string) (*Edge, error)
	ListEdges(ctx context.Context, org string, filter EdgeFilter) ([]Edge, error)
	UpsertEdge(ctx context.Context, e *Edge) error
	DeleteEdge(ctx context.Context, org, id string) error

	// IncidentEdges returns every edge in org where from_node = id or to_node = id.
	IncidentEdges(ctx context.Context, org, nodeID string) ([]Edge, error)
	// DeleteEdges removes a batch of edges by id, scoped to org, in one statement.
	DeleteEdges(ctx context.Context, org string, ids []string) (int, error)

	// OutgoingEdges returns edges in org leaving fromNode, optionally
	// restricted to relationshipTypes (nil/empty means all).
	OutgoingEdges(ctx context.Context, org, fromNode string, relationshipTypes []string) ([]Edge, error)

	// Query performs the outer join: nodes left-joined with their
	// incident edges, filtered by org and the optional predicates.
	Query(ctx context.Context, org string, req QueryRequest) ([]Node, []Edge, error)

	// AllNodes / AllEdges back the export path.
	AllNodes(ctx context.Context, org string) ([]Node, error)
	AllEdges(ctx context.Context, org string) ([]Edge, error)
}

// Cache is the read-through node cache (KV).
type Cache interface {
	GetNode(ctx context.Context, org, id string) (*Node, bool, error)
	SetNode(ctx context.Context, n *Node) error
	DeleteNode(ctx context.Context, org, id string) error
	HealthCheck(ctx context.Context) error
}

// ObjectStore is the append-only snapshot blob store (OS).
type ObjectStore interface {
	PutSnapshot(ctx context.Context, key string, body []byte, meta map[string]string) error
	Kind() string
	HealthCheck(ctx context.Context) error
}

// VectorIndex is the external similarity index keyed by edge id (VX).
type VectorIndex interface {
	UpsertPoint(ctx context.Context, collection, id string, vector []float64, payload map[string]interface{}) error
	HealthCheck(ctx context.Context) error
}

// EmbeddingProvider turns text into a vector (EP).
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	HealthCheck(ctx context.Context) error
}
