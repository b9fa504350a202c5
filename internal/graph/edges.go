package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CreateEdge implements Create, including the best-effort
// vectorization side-effect. EP/VX are invoked only after the DS write has
// committed; their failure is logged but never rolls back the edge or
// surfaces a 5xx.
func (e *Engine) CreateEdge(ctx context.Context, org string, ed *Edge, principal Principal) (*Edge, error) {
	if ed.FromNode == "" || ed.ToNode == "" {
		return nil, &BadRequestError{Message: "from_node and to_node are required"}
	}
	if ed.ID == "" {
		ed.ID = newID()
	}
	if ed.RelationshipType == "" {
		ed.RelationshipType = "related"
	}
	if ed.Properties == nil {
		ed.Properties = map[string]interface{}{}
	}
	ed.OrgID = org
	ts := now()
	ed.CreatedAt = ts
	ed.UpdatedAt = ts
	ed.CreatedBy = principal.ID
	ed.UpdatedBy = principal.ID
	ed.UserAgent = principal.UserAgent
	ed.ClientIP = principal.ClientIP

	start := time.Now()
	err := e.Store.UpsertEdge(ctx, ed)
	stage(ctx, "DS", "upsert_edge", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}

	if keys, ok := vectorizeKeys(ed.Properties); ok {
		vectorized := e.vectorizeEdge(ctx, org, ed, keys)
		ed.Vectorized = &vectorized
	}

	return ed, nil
}

// vectorizeKeys returns the list of property keys requested for
// vectorization via the reserved "vectorize" property key, and whether
// vectorization was requested at all.
func vectorizeKeys(properties map[string]interface{}) ([]string, bool) {
	raw, ok := properties["vectorize"]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, len(keys) > 0
}

// vectorizeEdge builds the embedding text, calls EP, and upserts the result
// into VX keyed by edge id. Returns whether the side-effect succeeded.
func (e *Engine) vectorizeEdge(ctx context.Context, org string, ed *Edge, keys []string) bool {
	if e.Embeddings == nil || e.VectorIndex == nil {
		log.Warn().Str("edge", ed.ID).Msg("vectorize requested but no embedding provider or vector index configured")
		return false
	}

	text := buildVectorizeText(ed.Properties, keys)
	epStart := time.Now()
	vector, err := e.Embeddings.Embed(ctx, text)
	stage(ctx, "EP", "embed", epStart, err)
	if err != nil {
		log.Warn().Err(err).Str("edge", ed.ID).Msg("embedding provider call failed, edge write unaffected")
		return false
	}

	payload := map[string]interface{}{
		"edge_id":      ed.ID,
		"from_node":     ed.FromNode,
		"to_node":      ed.ToNode,
		"org_id":      org,
		"relationship_type": ed.RelationshipType,
	}
	vxStart := time.Now()
	err = e.VectorIndex.UpsertPoint(ctx, e.EdgeCollection, ed.ID, vector, payload)
	stage(ctx, "VX", "upsert_point", vxStart, err)
	if err != nil {
		log.Warn().Err(err).Str("edge", ed.ID).Msg("vector index upsert failed, edge write unaffected")
		return false
	}
	return true
}

// buildVectorizeText renders the requested properties as "<key>: <value>"
// lines, normalizing keys (lowercase, underscores → spaces)
// and separating entries with a blank line.
func buildVectorizeText(properties map[string]interface{}, keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var parts []string
	for _, key := range sorted {
		v, ok := properties[key]
		if !ok {
			continue
		}
		normalizedKey := strings.ReplaceAll(strings.ToLower(key), "_", " ")
		parts = append(parts, fmt.Sprintf("%s: %s", normalizedKey, describeValue(v)))
	}
	return strings.Join(parts, "\n\n")
}

func describeValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// GetEdge implements Read one.
func (e *Engine) GetEdge(ctx context.Context, org, id string) (*Edge, error) {
	start := time.Now()
	ed, err := e.Store.GetEdge(ctx, org, id)
	stage(ctx, "DS", "get_edge", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if ed == nil {
		return nil, &NotFoundError{Entity: "Edge", OrgID: org, ID: id}
	}
	return ed, nil
}

// ListEdges implements List.
func (e *Engine) ListEdges(ctx context.Context, org string, filter EdgeFilter) (*EdgeListResult, error) {
	start := time.Now()
	edges, err := e.Store.ListEdges(ctx, org, filter)
	stage(ctx, "DS", "list_edges", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if edges == nil {
		edges = []Edge{}
	}
	return &EdgeListResult{
		Edges: edges,
		Metadata: EdgeListMeta{
			OrgID:  org,
			Total:  len(edges),
			Filters: filter,
		},
	}, nil
}

// UpdateEdge implements Update: replace relationship_type if supplied,
// shallow-merge properties if supplied, preserve from/to and creation audit.
func (e *Engine) UpdateEdge(ctx context.Context, org, id string, patch *Edge, principal Principal) (*Edge, error) {
	start := time.Now()
	existing, err := e.Store.GetEdge(ctx, org, id)
	stage(ctx, "DS", "get_edge", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if existing == nil {
		return nil, &NotFoundError{Entity: "Edge", OrgID: org, ID: id}
	}

	if patch.RelationshipType != "" {
		existing.RelationshipType = patch.RelationshipType
	}
	if patch.Properties != nil {
		merged := make(map[string]interface{}, len(existing.Properties)+len(patch.Properties))
		for k, v := range existing.Properties {
			merged[k] = v
		}
		for k, v := range patch.Properties {
			merged[k] = v
		}
		existing.Properties = merged
	}

	existing.UpdatedAt = now()
	existing.UpdatedBy = principal.ID
	if principal.UserAgent != "" {
		existing.UserAgent = principal.UserAgent
	}
	if principal.ClientIP != "" {
		existing.ClientIP = principal.ClientIP
	}

	start2 := time.Now()
	err = e.Store.UpsertEdge(ctx, existing)
	stage(ctx, "DS", "upsert_edge", start2, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	return existing, nil
}

// DeleteEdge implements Delete.
func (e *Engine) DeleteEdge(ctx context.Context, org, id string) error {
	start := time.Now()
	err := e.Store.DeleteEdge(ctx, org, id)
	stage(ctx, "DS", "delete_edge", start, err)
	if err != nil {
		return &DependencyError{Dependency: "DS", Err: err}
	}
	return nil
}
