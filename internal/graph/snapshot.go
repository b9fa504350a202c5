package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const snapshotVersion = "1.0"

// Export implements Export: select all nodes/edges for org, emit the
// wire-format snapshot, and additionally persist it to the Object Store
// under key "export-<org>-<timestamp>.json". The OS write is best-effort:
// its failure is logged but does not fail the export response, mirroring
// the vectorization side-channel treatment for EP/VX.
func (e *Engine) Export(ctx context.Context, org string) (*Snapshot, error) {
	start := time.Now()
	nodes, err := e.Store.AllNodes(ctx, org)
	stage(ctx, "DS", "all_nodes", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	start2 := time.Now()
	edges, err := e.Store.AllEdges(ctx, org)
	stage(ctx, "DS", "all_edges", start2, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}

	snap := &Snapshot{
		Timestamp: now(),
		Version:  snapshotVersion,
		OrgID:   org,
		Nodes:   nodes,
		Edges:   edges,
	}

	if e.Objects != nil {
		body, err := json.Marshal(snap)
		if err != nil {
			log.Warn().Err(err).Str("org", org).Msg("failed to marshal snapshot for object store")
		} else {
			key := fmt.Sprintf("export-%s-%s.json", org, snap.Timestamp.Format("20060102T150405Z"))
			meta := map[string]string{
				"exportedAt": snap.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
				"orgId":   org,
				"nodeCount": fmt.Sprintf("%d", len(nodes)),
				"edgeCount": fmt.Sprintf("%d", len(edges)),
			}
			osStart := time.Now()
			err := e.Objects.PutSnapshot(ctx, key, body, meta)
			stage(ctx, "OS", "put_snapshot", osStart, err)
			if err != nil {
				log.Warn().Err(err).Str("org", org).Str("key", key).Msg("snapshot object store write failed")
			}
		}
	}

	return snap, nil
}

// Import implements Import: fills org_id and default audit fields for
// nodes/edges that omit them, and UPSERTs both, making retries idempotent.
func (e *Engine) Import(ctx context.Context, org string, nodes []Node, edges []Edge, principal Principal) (*ImportResult, error) {
	ts := now()

	for i := range nodes {
		n := &nodes[i]
		if n.OrgID == "" {
			n.OrgID = org
		}
		if n.ID == "" {
			n.ID = newID()
		}
		if n.Type == "" {
			n.Type = "default"
		}
		if n.Properties == nil {
			n.Properties = map[string]interface{}{}
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = ts
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = ts
		}
		if n.CreatedBy == "" {
			n.CreatedBy = principal.ID
		}
		if n.UpdatedBy == "" {
			n.UpdatedBy = principal.ID
		}
		start := time.Now()
		err := e.Store.UpsertNode(ctx, n)
		stage(ctx, "DS", "upsert_node", start, err)
		if err != nil {
			return nil, &DependencyError{Dependency: "DS", Err: err}
		}
		if e.Cache != nil {
			cacheStart := time.Now()
			cacheErr := e.Cache.SetNode(ctx, n)
			stage(ctx, "KV", "set_node", cacheStart, cacheErr)
		}
	}

	for i := range edges {
		ed := &edges[i]
		if ed.OrgID == "" {
			ed.OrgID = org
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
		if ed.CreatedAt.IsZero() {
			ed.CreatedAt = ts
		}
		if ed.UpdatedAt.IsZero() {
			ed.UpdatedAt = ts
		}
		if ed.CreatedBy == "" {
			ed.CreatedBy = principal.ID
		}
		if ed.UpdatedBy == "" {
			ed.UpdatedBy = principal.ID
		}
		start := time.Now()
		err := e.Store.UpsertEdge(ctx, ed)
		stage(ctx, "DS", "upsert_edge", start, err)
		if err != nil {
			return nil, &DependencyError{Dependency: "DS", Err: err}
		}
	}

	return &ImportResult{
		OrgID:     org,
		ImportedNodes: len(nodes),
		ImportedEdges: len(edges),
		Timestamp:   ts,
		ImportedBy:  principal.ID,
	}, nil
}
