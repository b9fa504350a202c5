package graph

import (
	"context"
	"time"
)

// Query runs a single outer join of nodes with their incident
// edges, deduplicated, filtered by org and optional node/relationship type.
func (e *Engine) Query(ctx context.Context, org string, req QueryRequest) (*QueryResult, error) {
	start := time.Now()

	nodes, edges, err := e.Store.Query(ctx, org, req)
	stage(ctx, "DS", "query", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}

	nodes = dedupeNodes(nodes)
	edges = dedupeEdges(edges)

	return &QueryResult{
		Nodes: nodes,
		Edges: edges,
		Metadata: QueryMeta{
			TotalNodes: len(nodes),
			TotalEdges: len(edges),
			QueryTimeMs: time.Since(start).Milliseconds(),
			OrgID:    org,
		},
	}, nil
}

func dedupeNodes(nodes []Node) []Node {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func dedupeEdges(edges []Edge) []Edge {
	seen := make(map[string]struct{}, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, ed := range edges {
		if _, ok := seen[ed.ID]; ok {
			continue
		}
		seen[ed.ID] = struct{}{}
		out = append(out, ed)
	}
	return out
}
