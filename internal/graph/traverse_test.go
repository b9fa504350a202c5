package graph_test

import (
	"context"
	"testing"

	"github.com/lineagehub/graphd/internal/graph"
)

// buildDenseGraph creates the 6-node, 8-edge fixture from spec scenario 3:
// Alice, Bob, Carol, PolicyDoc, HR, Wiki with manages/authored/uses/
// references/mentors relationships.
func buildDenseGraph(t *testing.T, e *graph.Engine, org string) (alice *graph.Node) {
	t.Helper()
	ctx := context.Background()
	p := graph.Principal{ID: "system"}

	mk := func(typ string) *graph.Node {
		n, err := e.CreateNode(ctx, org, &graph.Node{Type: typ}, p)
		if err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
		return n
	}
	edge := func(from, to, relType string) {
		if _, err := e.CreateEdge(ctx, org, &graph.Edge{FromNode: from, ToNode: to, RelationshipType: relType}, p); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}

	aliceN := mk("user")
	bob := mk("user")
	carol := mk("user")
	policyDoc := mk("document")
	hr := mk("team")
	wiki := mk("document")

	edge(aliceN.ID, bob.ID, "manages")
	edge(aliceN.ID, carol.ID, "manages")
	edge(bob.ID, policyDoc.ID, "authored")
	edge(carol.ID, wiki.ID, "authored")
	edge(aliceN.ID, hr.ID, "uses")
	edge(policyDoc.ID, wiki.ID, "references")
	edge(hr.ID, policyDoc.ID, "references")
	edge(aliceN.ID, carol.ID, "mentors")

	return aliceN
}

func TestTraverseDenseGraph(t *testing.T) {
	e := newTestEngine()
	alice := buildDenseGraph(t, e, "acme")

	result, err := e.Traverse(context.Background(), "acme", graph.TraverseRequest{
		StartNode: alice.ID,
		MaxDepth: 5,
	})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}

	if len(result.Nodes) < 4 {
		t.Errorf("expected at least 4 distinct nodes, got %d", len(result.Nodes))
	}
	if len(result.Edges) < 4 {
		t.Errorf("expected at least 4 edges, got %d", len(result.Edges))
	}

	var hasLongPath bool
	for _, path := range result.Paths {
		if len(path) >= 3 {
			hasLongPath = true
			break
		}
	}
	if !hasLongPath {
		t.Error("expected at least one path with length >= 3")
	}
}

func TestTraverseRespectsMaxDepth(t *testing.T) {
	e := newTestEngine()
	alice := buildDenseGraph(t, e, "acme")

	result, err := e.Traverse(context.Background(), "acme", graph.TraverseRequest{
		StartNode: alice.ID,
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	for _, path := range result.Paths {
		if len(path) > 3 {
			t.Errorf("path length %d exceeds max_depth+1=3: %v", len(path), path)
		}
	}
}

func TestTraverseVisitedNodesAreUnique(t *testing.T) {
	e := newTestEngine()
	alice := buildDenseGraph(t, e, "acme")

	result, err := e.Traverse(context.Background(), "acme", graph.TraverseRequest{
		StartNode: alice.ID,
		MaxDepth: 5,
	})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}

	seen := make(map[string]struct{})
	for _, n := range result.Nodes {
		if _, ok := seen[n.ID]; ok {
			t.Errorf("node %s appeared more than once in result.nodes", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
}

func TestTraverseFiltersByRelationshipType(t *testing.T) {
	e := newTestEngine()
	alice := buildDenseGraph(t, e, "acme")

	result, err := e.Traverse(context.Background(), "acme", graph.TraverseRequest{
		StartNode:     alice.ID,
		MaxDepth:     5,
		RelationshipTypes: []string{"manages"},
	})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	for _, ed := range result.Edges {
		if ed.RelationshipType != "manages" {
			t.Errorf("expected only 'manages' edges, got %q", ed.RelationshipType)
		}
	}
}
