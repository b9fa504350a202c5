package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lineagehub/graphd/internal/graph"
)

func TestCreateEdgeRequiresFromAndToNode(t *testing.T) {
	e := newTestEngine()
	_, err := e.CreateEdge(context.Background(), "acme", &graph.Edge{}, graph.Principal{ID: "alice"})
	if _, ok := err.(*graph.BadRequestError); !ok {
		t.Fatalf("expected BadRequestError, got %T: %v", err, err)
	}
}

func TestCreateEdgeDefaultsRelationshipType(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	ed, err := e.CreateEdge(ctx, "acme", &graph.Edge{FromNode: "n1", ToNode: "n2"}, graph.Principal{ID: "alice"})
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if ed.RelationshipType != "related" {
		t.Errorf("expected default relationship_type 'related', got %q", ed.RelationshipType)
	}
}

func TestCreateEdgeWithoutVectorizeHintSkipsVectorization(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	ed, err := e.CreateEdge(ctx, "acme", &graph.Edge{FromNode: "n1", ToNode: "n2"}, graph.Principal{ID: "alice"})
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if ed.Vectorized != nil {
		t.Error("expected Vectorized to stay nil when no vectorize hint is present")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errTestEmbed
}
func (failingEmbedder) HealthCheck(ctx context.Context) error { return nil }

type noopVectorIndex struct{}

func (noopVectorIndex) UpsertPoint(ctx context.Context, collection, id string, vector []float64, payload map[string]interface{}) error {
	return nil
}
func (noopVectorIndex) HealthCheck(ctx context.Context) error { return nil }

var errTestEmbed = errors.New("embedding provider unreachable")

func TestVectorizationFailureDoesNotFailEdgeCreate(t *testing.T) {
	e := newTestEngine()
	e.Embeddings = failingEmbedder{}
	e.VectorIndex = noopVectorIndex{}
	ctx := context.Background()

	ed, err := e.CreateEdge(ctx, "acme", &graph.Edge{
		FromNode:  "n1",
		ToNode:   "n2",
		Properties: map[string]interface{}{"description": "owns", "vectorize": []interface{}{"description"}},
	}, graph.Principal{ID: "alice"})
	if err != nil {
		t.Fatalf("expected edge create to succeed despite EP failure, got: %v", err)
	}
	if ed.Vectorized == nil || *ed.Vectorized {
		t.Error("expected Vectorized=false reported on EP failure")
	}

	if _, getErr := e.GetEdge(ctx, "acme", ed.ID); getErr != nil {
		t.Errorf("expected edge to have been persisted despite vectorization failure: %v", getErr)
	}
}

func TestUpdateEdgePreservesEndpointsAndCreationAudit(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	creator := graph.Principal{ID: "alice"}
	editor := graph.Principal{ID: "bob"}

	ed, err := e.CreateEdge(ctx, "acme", &graph.Edge{FromNode: "n1", ToNode: "n2", RelationshipType: "owns"}, creator)
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	updated, err := e.UpdateEdge(ctx, "acme", ed.ID, &graph.Edge{RelationshipType: "manages"}, editor)
	if err != nil {
		t.Fatalf("UpdateEdge: %v", err)
	}
	if updated.FromNode != "n1" || updated.ToNode != "n2" {
		t.Error("expected from_node/to_node to be preserved")
	}
	if updated.RelationshipType != "manages" {
		t.Error("expected relationship_type to be replaced")
	}
	if updated.CreatedBy != "alice" {
		t.Error("created_by must be preserved across update")
	}
	if updated.UpdatedBy != "bob" {
		t.Error("updated_by must reflect the last mutating principal")
	}
}
