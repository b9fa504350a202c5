package graph_test

import (
	"context"
	"testing"

	"github.com/lineagehub/graphd/internal/graph"
)

func TestQueryDedupesNodesAndEdges(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	p := graph.Principal{ID: "alice"}

	a, _ := e.CreateNode(ctx, "acme", &graph.Node{Type: "user"}, p)
	b, _ := e.CreateNode(ctx, "acme", &graph.Node{Type: "user"}, p)
	if _, err := e.CreateEdge(ctx, "acme", &graph.Edge{FromNode: a.ID, ToNode: b.ID, RelationshipType: "knows"}, p); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	res, err := e.Query(ctx, "acme", graph.QueryRequest{NodeType: "user"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Metadata.TotalNodes != 2 {
		t.Errorf("expected 2 nodes, got %d", res.Metadata.TotalNodes)
	}
	if res.Metadata.TotalEdges != 1 {
		t.Errorf("expected 1 edge, got %d", res.Metadata.TotalEdges)
	}
	if res.Metadata.OrgID != "acme" {
		t.Errorf("expected org_id acme, got %q", res.Metadata.OrgID)
	}
}
