// Package memstore is an in-memory implementation of graph.Store, used as
// the zero-configuration fallback when DATABASE_URL is unset and as the
// fixture store in graph package tests. Mutex-guarded maps mirror the
// locking idiom of a simple in-memory store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/lineagehub/graphd/internal/graph"
)

type key struct {
	org string
	id string
}

// Store implements graph.Store with in-memory maps keyed by (org, id).
type Store struct {
	mu  sync.RWMutex
	nodes map[key]*graph.Node
	edges map[key]*graph.Edge
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nodes: make(map[key]*graph.Node),
		edges: make(map[key]*graph.Edge),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close() error           { return nil }
func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) GetNode(ctx context.Context, org, id string) (*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[key{org, id}]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (s *Store) ListNodes(ctx context.Context, org string, filter graph.NodeFilter) ([]graph.Node, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []graph.Node
	for k, n := range s.nodes {
		if k.org != org {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.CreatedBy != "" && n.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.UpdatedBy != "" && n.UpdatedBy != filter.UpdatedBy {
			continue
		}
		matched = append(matched, *n)
	}

	sortNodes(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 100
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func sortNodes(nodes []graph.Node, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = "created_at"
	}
	desc := sortOrder != "ASC"
	less := func(i, j int) bool {
		switch sortBy {
		case "updated_at":
			return nodes[i].UpdatedAt.Before(nodes[j].UpdatedAt)
		case "created_by":
			return nodes[i].CreatedBy < nodes[j].CreatedBy
		case "updated_by":
			return nodes[i].UpdatedBy < nodes[j].UpdatedBy
		default:
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func (s *Store) UpsertNode(ctx context.Context, n *graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.nodes[key{n.OrgID, n.ID}] = &cp
	return nil
}

func (s *Store) DeleteNode(ctx context.Context, org, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, key{org, id})
	return nil
}

func (s *Store) GetEdge(ctx context.Context, org, id string) (*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[key{org, id}]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListEdges(ctx context.Context, org string, filter graph.EdgeFilter) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []graph.Edge
	for k, e := range s.edges {
		if k.org != org {
			continue
		}
		if filter.Type != "" && e.RelationshipType != filter.Type {
			continue
		}
		if filter.From != "" && e.FromNode != filter.From {
			continue
		}
		if filter.To != "" && e.ToNode != filter.To {
			continue
		}
		out = append(out, *e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) UpsertEdge(ctx context.Context, e *graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.edges[key{e.OrgID, e.ID}] = &cp
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, org, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, key{org, id})
	return nil
}

func (s *Store) IncidentEdges(ctx context.Context, org, nodeID string) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Edge
	for k, e := range s.edges {
		if k.org != org {
			continue
		}
		if e.FromNode == nodeID || e.ToNode == nodeID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *Store) DeleteEdges(ctx context.Context, org string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	for _, id := range ids {
		k := key{org, id}
		if _, ok := s.edges[k]; ok {
			delete(s.edges, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) OutgoingEdges(ctx context.Context, org, fromNode string, relationshipTypes []string) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := make(map[string]struct{}, len(relationshipTypes))
	for _, t := range relationshipTypes {
		allowed[t] = struct{}{}
	}
	var out []graph.Edge
	for k, e := range s.edges {
		if k.org != org || e.FromNode != fromNode {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[e.RelationshipType]; !ok {
				continue
			}
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *Store) Query(ctx context.Context, org string, req graph.QueryRequest) ([]graph.Node, []graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []graph.Node
	nodeIDs := make(map[string]struct{})
	for k, n := range s.nodes {
		if k.org != org {
			continue
		}
		if req.NodeType != "" && n.Type != req.NodeType {
			continue
		}
		nodes = append(nodes, *n)
		nodeIDs[n.ID] = struct{}{}
	}

	var edges []graph.Edge
	for k, e := range s.edges {
		if k.org != org {
			continue
		}
		if req.RelationshipType != "" && e.RelationshipType != req.RelationshipType {
			continue
		}
		_, fromMatches := nodeIDs[e.FromNode]
		_, toMatches := nodeIDs[e.ToNode]
		if !fromMatches && !toMatches {
			continue
		}
		edges = append(edges, *e)
		if req.Limit > 0 && len(edges) >= req.Limit {
			break
		}
	}

	if req.Limit > 0 && len(nodes) > req.Limit {
		nodes = nodes[:req.Limit]
	}
	return nodes, edges, nil
}

func (s *Store) AllNodes(ctx context.Context, org string) ([]graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Node
	for k, n := range s.nodes {
		if k.org == org {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *Store) AllEdges(ctx context.Context, org string) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Edge
	for k, e := range s.edges {
		if k.org == org {
			out = append(out, *e)
		}
	}
	return out, nil
}

var _ graph.Store = (*Store)(nil)
