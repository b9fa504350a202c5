// Package graph implements the property-graph engine: node and edge CRUD
// through cache plus durable store, outer-join query, bounded traversal,
// and snapshot import/export. It wraps the Store, Cache, ObjectStore,
// VectorIndex, and EmbeddingProvider ports declared in ports.go.
package graph

import "time"

// Node is a typed vertex inside an organization.
type Node struct {
	ID     string         `json:"id" db:"id"`
	OrgID   string         `json:"org_id" db:"org_id"`
	Type    string         `json:"type" db:"type"`
	Properties map[string]interface{} `json:"properties" db:"properties"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	CreatedBy string         `json:"created_by" db:"created_by"`
	UpdatedBy string         `json:"updated_by" db:"updated_by"`
	UserAgent string         `json:"user_agent,omitempty" db:"user_agent"`
	ClientIP  string         `json:"client_ip,omitempty" db:"client_ip"`
}

// Edge is a directed, typed relationship between two nodes in the same org.
type Edge struct {
	ID        string         `json:"id" db:"id"`
	OrgID      string         `json:"org_id" db:"org_id"`
	FromNode     string         `json:"from_node" db:"from_node"`
	ToNode      string         `json:"to_node" db:"to_node"`
	RelationshipType string         `json:"relationship_type" db:"relationship_type"`
	Properties    map[string]interface{} `json:"properties" db:"properties"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	CreatedBy    string         `json:"created_by" db:"created_by"`
	UpdatedBy    string         `json:"updated_by" db:"updated_by"`
	UserAgent    string         `json:"user_agent,omitempty" db:"user_agent"`
	ClientIP     string         `json:"client_ip,omitempty" db:"client_ip"`

	// Vectorized reports whether the vectorization side-effect (if
	// requested via properties.vectorize) succeeded. Not persisted.
	Vectorized *bool `json:"vectorized,omitempty" db:"-"`
}

// Pagination describes a page of a filtered list.
type Pagination struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	TotalRecords int `json:"total_records"`
	TotalPages  int `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
	NextPage   *int `json:"next_page,omitempty"`
	PrevPage   *int `json:"prev_page,omitempty"`
}

// NodeListResult is the envelope returned by ListNodes.
type NodeListResult struct {
	Data    []Node   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NodeFilter narrows ListNodes.
type NodeFilter struct {
	Type   string
	CreatedBy string
	UpdatedBy string
	Page   int
	Limit   int
	SortBy  string
	SortOrder string
}

// EdgeFilter narrows ListEdges.
type EdgeFilter struct {
	Type string
	From string
	To  string
	Limit int
}

// EdgeListResult is the envelope returned by ListEdges.
type EdgeListResult struct {
	Edges  []Edge    `json:"edges"`
	Metadata EdgeListMeta `json:"metadata"`
}

type EdgeListMeta struct {
	OrgID  string   `json:"org_id"`
	Total  int    `json:"total"`
	Filters EdgeFilter `json:"filters"`
}

// QueryRequest is the body of POST /:org/query.
type QueryRequest struct {
	NodeType     string `json:"node_type,omitempty"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Limit      int  `json:"limit,omitempty"`
}

// QueryResult is the outer-join result of POST /:org/query.
type QueryResult struct {
	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Metadata QueryMeta  `json:"metadata"`
}

type QueryMeta struct {
	TotalNodes int  `json:"total_nodes"`
	TotalEdges int  `json:"total_edges"`
	QueryTimeMs int64 `json:"query_time_ms"`
	OrgID    string `json:"org_id"`
}

// TraverseRequest is the body of POST /:org/traverse.
type TraverseRequest struct {
	StartNode     string  `json:"start_node"`
	MaxDepth     int   `json:"max_depth,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
}

// TraverseResult is the response of POST /:org/traverse.
type TraverseResult struct {
	Nodes  []Node    `json:"nodes"`
	Edges  []Edge    `json:"edges"`
	Paths  [][]string  `json:"paths"`
	Metadata TraverseMeta `json:"metadata"`
}

type TraverseMeta struct {
	OrgID       string  `json:"org_id"`
	StartNode     string  `json:"start_node"`
	MaxDepth     int   `json:"max_depth"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	TotalNodes    int   `json:"total_nodes"`
	TotalEdges    int   `json:"total_edges"`
	TotalPaths    int   `json:"total_paths"`
}

// Snapshot is the export/import wire format.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Version  string  `json:"version"`
	OrgID   string  `json:"org_id"`
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
}

// ImportResult is the response of POST /:org/metadata/import.
type ImportResult struct {
	OrgID     string  `json:"org_id"`
	ImportedNodes int    `json:"imported_nodes"`
	ImportedEdges int    `json:"imported_edges"`
	Timestamp   time.Time `json:"timestamp"`
	ImportedBy   string  `json:"imported_by"`
}

// DeleteNodeResult is the response of DELETE /:org/nodes/:id.
type DeleteNodeResult struct {
	Deleted   string  `json:"deleted"`
	DeletedEdges int    `json:"deleted_edges"`
	Timestamp  time.Time `json:"timestamp"`
}
