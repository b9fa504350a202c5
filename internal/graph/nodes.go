package graph

import (
	"context"
	"time"
)

// NodeCacheStatus reports whether a node read was served from KV.
type NodeCacheStatus string

const (
	CacheHit NodeCacheStatus = "HIT"
	CacheMiss NodeCacheStatus = "MISS"
)

// GetNode implements Read: KV lookup first, DS on miss, repopulating KV.
func (e *Engine) GetNode(ctx context.Context, org, id string) (*Node, NodeCacheStatus, error) {
	if e.Cache != nil {
		start := time.Now()
		n, ok, err := e.Cache.GetNode(ctx, org, id)
		stage(ctx, "KV", "get_node", start, err)
		if err == nil && ok {
			return n, CacheHit, nil
		}
	}

	start := time.Now()
	n, err := e.Store.GetNode(ctx, org, id)
	stage(ctx, "DS", "get_node", start, err)
	if err != nil {
		return nil, "", err
	}
	if n == nil {
		return nil, "", &NotFoundError{Entity: "Node", OrgID: org, ID: id}
	}

	if e.Cache != nil {
		start := time.Now()
		err := e.Cache.SetNode(ctx, n)
		stage(ctx, "KV", "set_node", start, err)
	}
	return n, CacheMiss, nil
}

// ListNodes implements List with filtering, paging, and sort.
func (e *Engine) ListNodes(ctx context.Context, org string, filter NodeFilter) (*NodeListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "DESC"
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}

	start := time.Now()
	nodes, total, err := e.Store.ListNodes(ctx, org, filter)
	stage(ctx, "DS", "list_nodes", start, err)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []Node{}
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	if totalPages < 1 {
		totalPages = 1
	}
	p := Pagination{
		Page:     filter.Page,
		Limit:    filter.Limit,
		TotalRecords: total,
		TotalPages:  totalPages,
		HasNextPage: filter.Page < totalPages,
		HasPrevPage: filter.Page > 1,
	}
	if p.HasNextPage {
		next := filter.Page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := filter.Page - 1
		p.PrevPage = &prev
	}

	return &NodeListResult{Data: nodes, Pagination: p}, nil
}

// CreateNode implements Create: id generation, default type, audit
// fields from the principal, and UPSERT so retries with a client-supplied
// id are idempotent.
func (e *Engine) CreateNode(ctx context.Context, org string, n *Node, principal Principal) (*Node, error) {
	if n.ID == "" {
		n.ID = newID()
	}
	if n.Type == "" {
		n.Type = "default"
	}
	if n.Properties == nil {
		n.Properties = map[string]interface{}{}
	}
	n.OrgID = org
	ts := now()
	n.CreatedAt = ts
	n.UpdatedAt = ts
	n.CreatedBy = principal.ID
	n.UpdatedBy = principal.ID
	n.UserAgent = principal.UserAgent
	n.ClientIP = principal.ClientIP

	start := time.Now()
	err := e.Store.UpsertNode(ctx, n)
	stage(ctx, "DS", "upsert_node", start, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if e.Cache != nil {
		start := time.Now()
		err := e.Cache.SetNode(ctx, n)
		stage(ctx, "KV", "set_node", start, err)
	}
	return n, nil
}

// UpdateNode implements Update: shallow-merge properties, preserve
// creation audit fields, advance updated_at/updated_by.
func (e *Engine) UpdateNode(ctx context.Context, org, id string, patch *Node, principal Principal) (*Node, error) {
	start := time.Now()
	existing, err := e.Store.GetNode(ctx, org, id)
	stage(ctx, "DS", "get_node", start, err)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Entity: "Node", OrgID: org, ID: id}
	}

	if patch.Type != "" {
		existing.Type = patch.Type
	}
	merged := make(map[string]interface{}, len(existing.Properties)+len(patch.Properties))
	for k, v := range existing.Properties {
		merged[k] = v
	}
	for k, v := range patch.Properties {
		merged[k] = v
	}
	existing.Properties = merged

	existing.UpdatedAt = now()
	existing.UpdatedBy = principal.ID
	if principal.UserAgent != "" {
		existing.UserAgent = principal.UserAgent
	}
	if principal.ClientIP != "" {
		existing.ClientIP = principal.ClientIP
	}

	start2 := time.Now()
	err = e.Store.UpsertNode(ctx, existing)
	stage(ctx, "DS", "upsert_node", start2, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if e.Cache != nil {
		start3 := time.Now()
		err := e.Cache.SetNode(ctx, existing)
		stage(ctx, "KV", "set_node", start3, err)
	}
	return existing, nil
}

// DeleteNode implements Delete: cascade to incident edges, then
// remove the node row and its KV entry.
func (e *Engine) DeleteNode(ctx context.Context, org, id string) (*DeleteNodeResult, error) {
	start := time.Now()
	existing, err := e.Store.GetNode(ctx, org, id)
	stage(ctx, "DS", "get_node", start, err)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Entity: "Node", OrgID: org, ID: id}
	}

	start2 := time.Now()
	incident, err := e.Store.IncidentEdges(ctx, org, id)
	stage(ctx, "DS", "incident_edges", start2, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	var deletedEdges int
	if len(incident) > 0 {
		ids := make([]string, len(incident))
		for i, ed := range incident {
			ids[i] = ed.ID
		}
		start3 := time.Now()
		deletedEdges, err = e.Store.DeleteEdges(ctx, org, ids)
		stage(ctx, "DS", "delete_edges", start3, err)
		if err != nil {
			return nil, &DependencyError{Dependency: "DS", Err: err}
		}
	}

	start4 := time.Now()
	err = e.Store.DeleteNode(ctx, org, id)
	stage(ctx, "DS", "delete_node", start4, err)
	if err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}
	if e.Cache != nil {
		start5 := time.Now()
		err := e.Cache.DeleteNode(ctx, org, id)
		stage(ctx, "KV", "delete_node", start5, err)
	}

	return &DeleteNodeResult{Deleted: id, DeletedEdges: deletedEdges, Timestamp: now()}, nil
}
