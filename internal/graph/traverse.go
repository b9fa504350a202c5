package graph

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultMaxDepth = 3

// traverseState holds the mutable state shared across the concurrent DFS
// fan-out: visited and the accumulated result
// are guarded by mu since edge lookups and recursion may run concurrently.
type traverseState struct {
	mu   sync.Mutex
	visited map[string]struct{}
	nodes  []Node
	edges  []Edge
	paths  [][]string
}

func newTraverseState() *traverseState {
	return &traverseState{visited: make(map[string]struct{})}
}

func (s *traverseState) markVisited(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[id]; ok {
		return false
	}
	s.visited[id] = struct{}{}
	return true
}

func (s *traverseState) alreadyVisited(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[id]
	return ok
}

func (s *traverseState) addNode(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, n)
}

func (s *traverseState) addEdge(e Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, e)
}

func (s *traverseState) addPath(path []string) {
	cp := append([]string(nil), path...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, cp)
}

// Traverse runs an outgoing-edge depth-limited DFS rooted at
// start_node. Edge lookups at a given level and the recursion into their
// to_node targets are fanned out concurrently; visited/result are guarded accordingly.
func (e *Engine) Traverse(ctx context.Context, org string, req TraverseRequest) (*TraverseResult, error) {
	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	state := newTraverseState()
	if err := e.dfs(ctx, org, req.StartNode, 0, maxDepth, req.RelationshipTypes, []string{req.StartNode}, state); err != nil {
		return nil, &DependencyError{Dependency: "DS", Err: err}
	}

	return &TraverseResult{
		Nodes: state.nodes,
		Edges: state.edges,
		Paths: state.paths,
		Metadata: TraverseMeta{
			OrgID:       org,
			StartNode:     req.StartNode,
			MaxDepth:     maxDepth,
			RelationshipTypes: req.RelationshipTypes,
			TotalNodes:    len(state.nodes),
			TotalEdges:    len(state.edges),
			TotalPaths:    len(state.paths),
		},
	}, nil
}

func (e *Engine) dfs(ctx context.Context, org, nodeID string, depth, maxDepth int, relTypes []string, path []string, state *traverseState) error {
	if depth >= maxDepth || state.alreadyVisited(nodeID) {
		if len(path) > 1 {
			state.addPath(path)
		}
		return nil
	}
	if !state.markVisited(nodeID) {
		if len(path) > 1 {
			state.addPath(path)
		}
		return nil
	}

	start := time.Now()
	n, err := e.Store.GetNode(ctx, org, nodeID)
	stage(ctx, "DS", "get_node", start, err)
	if err != nil {
		return err
	}
	if n != nil {
		state.addNode(*n)
	}

	start2 := time.Now()
	edges, err := e.Store.OutgoingEdges(ctx, org, nodeID, relTypes)
	stage(ctx, "DS", "outgoing_edges", start2, err)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ed := range edges {
		ed := ed
		state.addEdge(ed)
		childPath := make([]string, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = ed.ToNode
		g.Go(func() error {
			return e.dfs(gctx, org, ed.ToNode, depth+1, maxDepth, relTypes, childPath, state)
		})
	}
	return g.Wait()
}
