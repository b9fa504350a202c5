package graph_test

import (
	"context"
	"testing"

	"github.com/lineagehub/graphd/internal/graph"
	"github.com/lineagehub/graphd/internal/graphstore/memstore"
)

func newTestEngine() *graph.Engine {
	return graph.New(memstore.New(), nil, nil, nil, nil, "edges")
}

func TestCreateAndGetNode(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	p := graph.Principal{ID: "alice"}

	n, err := e.CreateNode(ctx, "acme", &graph.Node{Type: "user", Properties: map[string]interface{}{"name": "Alice"}}, p)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	got, status, err := e.GetNode(ctx, "acme", n.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if status != graph.CacheMiss {
		t.Errorf("expected cache miss without a configured cache, got %s", status)
	}
	if got.Type != "user" || got.Properties["name"] != "Alice" {
		t.Errorf("unexpected node: %+v", got)
	}
}

func TestGetNodeNotFound(t *testing.T) {
	e := newTestEngine()
	_, _, err := e.GetNode(context.Background(), "acme", "missing")
	var nfe *graph.NotFoundError
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if !asNotFound(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func asNotFound(err error, target **graph.NotFoundError) bool {
	nfe, ok := err.(*graph.NotFoundError)
	if ok {
		*target = nfe
	}
	return ok
}

func TestUpsertIsIdempotent(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	p := graph.Principal{ID: "alice"}

	n1, err := e.CreateNode(ctx, "acme", &graph.Node{ID: "fixed", Type: "user"}, p)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	n2, err := e.CreateNode(ctx, "acme", &graph.Node{ID: "fixed", Type: "user"}, p)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if n1.ID != n2.ID {
		t.Error("expected same id on retried create")
	}

	res, err := e.ListNodes(ctx, "acme", graph.NodeFilter{})
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if res.Pagination.TotalRecords != 1 {
		t.Errorf("expected exactly one row after repeated create, got %d", res.Pagination.TotalRecords)
	}
}

func TestUpdateNodeShallowMergesPropertiesAndPreservesAudit(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	creator := graph.Principal{ID: "alice"}
	editor := graph.Principal{ID: "bob"}

	n, err := e.CreateNode(ctx, "acme", &graph.Node{
		Type:    "user",
		Properties: map[string]interface{}{"name": "Alice", "role": "admin"},
	}, creator)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	createdAt := n.CreatedAt

	updated, err := e.UpdateNode(ctx, "acme", n.ID, &graph.Node{
		Properties: map[string]interface{}{"role": "editor"},
	}, editor)
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}

	if updated.Properties["name"] != "Alice" {
		t.Error("expected shallow merge to preserve untouched keys")
	}
	if updated.Properties["role"] != "editor" {
		t.Error("expected shallow merge to apply overlapping key from patch")
	}
	if updated.CreatedBy != "alice" {
		t.Error("created_by must never change")
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Error("created_at must never change")
	}
	if updated.UpdatedBy != "bob" {
		t.Error("updated_by must reflect the last mutating principal")
	}
}

func TestDeleteNodeCascadesToIncidentEdges(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	p := graph.Principal{ID: "alice"}

	a, _ := e.CreateNode(ctx, "acme", &graph.Node{Type: "user"}, p)
	b, _ := e.CreateNode(ctx, "acme", &graph.Node{Type: "user"}, p)
	edge, err := e.CreateEdge(ctx, "acme", &graph.Edge{FromNode: a.ID, ToNode: b.ID}, p)
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	result, err := e.DeleteNode(ctx, "acme", a.ID)
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if result.DeletedEdges < 1 {
		t.Errorf("expected at least one cascaded edge delete, got %d", result.DeletedEdges)
	}

	if _, err := e.GetEdge(ctx, "acme", edge.ID); err == nil {
		t.Error("expected edge to be gone after incident node deletion")
	}
}

func TestTenantIsolation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	p := graph.Principal{ID: "alice"}

	n, err := e.CreateNode(ctx, "test", &graph.Node{ID: "shared-id", Type: "user"}, p)
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	if _, _, err := e.GetNode(ctx, "load-test", n.ID); err == nil {
		t.Error("expected node created in one org to be invisible from another org")
	}
}
