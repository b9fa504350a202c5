// Package postgres implements the graph.Store durable-store port on top of
// pgx/v5: a pgxpool.Pool, a raw DDL migration run at startup when
// requested, single-row INSERT ... ON CONFLICT UPSERTs for nodes and
// edges, and one `id = ANY($2)` statement for the cascade-delete path.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/internal/graph"
)

// Store implements graph.Store against a PostgreSQL database.
type Store struct {
	pool *pgxpool.Pool
}

// New opens a pgxpool against connURL. It does not migrate; callers
// invoke Migrate explicitly when INIT_DB is truthy.
func New(ctx context.Context, connURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Msg("durable store connected")
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the nodes and edges tables and the index set required
// on: org_id; type; created_by, updated_by, created_at, updated_at;
// composite (org_id, type); for edges additionally from_node, to_node,
// relationship_type, and composites (org_id, from_node), (org_id, to_node),
// (org_id, relationship_type).
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS nodes (
	id     TEXT NOT NULL,
	org_id   TEXT NOT NULL,
	type    TEXT NOT NULL,
	properties JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	client_ip TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (id, org_id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_org_id ON nodes (org_id);
CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes (type);
CREATE INDEX IF NOT EXISTS idx_nodes_created_by ON nodes (created_by);
CREATE INDEX IF NOT EXISTS idx_nodes_updated_by ON nodes (updated_by);
CREATE INDEX IF NOT EXISTS idx_nodes_created_at ON nodes (created_at);
CREATE INDEX IF NOT EXISTS idx_nodes_updated_at ON nodes (updated_at);
CREATE INDEX IF NOT EXISTS idx_nodes_org_type ON nodes (org_id, type);

CREATE TABLE IF NOT EXISTS edges (
	id        TEXT NOT NULL,
	org_id      TEXT NOT NULL,
	from_node     TEXT NOT NULL,
	to_node      TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	properties    JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by    TEXT NOT NULL DEFAULT '',
	updated_by    TEXT NOT NULL DEFAULT '',
	user_agent    TEXT NOT NULL DEFAULT '',
	client_ip     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (id, org_id)
);

CREATE INDEX IF NOT EXISTS idx_edges_org_id ON edges (org_id);
CREATE INDEX IF NOT EXISTS idx_edges_created_by ON edges (created_by);
CREATE INDEX IF NOT EXISTS idx_edges_updated_by ON edges (updated_by);
CREATE INDEX IF NOT EXISTS idx_edges_created_at ON edges (created_at);
CREATE INDEX IF NOT EXISTS idx_edges_updated_at ON edges (updated_at);
CREATE INDEX IF NOT EXISTS idx_edges_from_node ON edges (from_node);
CREATE INDEX IF NOT EXISTS idx_edges_to_node ON edges (to_node);
CREATE INDEX IF NOT EXISTS idx_edges_relationship_type ON edges (relationship_type);
CREATE INDEX IF NOT EXISTS idx_edges_org_from ON edges (org_id, from_node);
CREATE INDEX IF NOT EXISTS idx_edges_org_to ON edges (org_id, to_node);
CREATE INDEX IF NOT EXISTS idx_edges_org_rel ON edges (org_id, relationship_type);
`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

func marshalProps(p map[string]interface{}) ([]byte, error) {
	if p == nil {
		p = map[string]interface{}{}
	}
	return json.Marshal(p)
}

func (s *Store) GetNode(ctx context.Context, org, id string) (*graph.Node, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, org_id, type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM nodes WHERE org_id = $1 AND id = $2`, org, id)
	n, err := scanNode(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

func scanNode(row pgx.Row) (*graph.Node, error) {
	var n graph.Node
	var raw []byte
	if err := row.Scan(&n.ID, &n.OrgID, &n.Type, &raw, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy, &n.UserAgent, &n.ClientIP); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &n.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal node properties: %w", err)
	}
	return &n, nil
}

func (s *Store) ListNodes(ctx context.Context, org string, filter graph.NodeFilter) ([]graph.Node, int, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{org}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.UpdatedBy != "" {
		args = append(args, filter.UpdatedBy)
		where = append(where, fmt.Sprintf("updated_by = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM nodes WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count nodes: %w", err)
	}

	sortCol := "created_at"
	switch filter.SortBy {
	case "updated_at", "type", "id":
		sortCol = filter.SortBy
	}
	sortDir := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		sortDir = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT id, org_id, type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM nodes WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, whereClause, sortCol, sortDir, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var out []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

func (s *Store) UpsertNode(ctx context.Context, n *graph.Node) error {
	props, err := marshalProps(n.Properties)
	if err != nil {
		return fmt.Errorf("marshal node properties: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO nodes (id, org_id, type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id, org_id) DO UPDATE SET
			type = EXCLUDED.type,
			properties = EXCLUDED.properties,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			user_agent = EXCLUDED.user_agent,
			client_ip = EXCLUDED.client_ip`,
		n.ID, n.OrgID, n.Type, props, n.CreatedAt, n.UpdatedAt, n.CreatedBy, n.UpdatedBy, n.UserAgent, n.ClientIP)
	return err
}

func (s *Store) DeleteNode(ctx context.Context, org, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE org_id = $1 AND id = $2`, org, id)
	return err
}

func (s *Store) GetEdge(ctx context.Context, org, id string) (*graph.Edge, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE org_id = $1 AND id = $2`, org, id)
	e, err := scanEdge(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get edge: %w", err)
	}
	return e, nil
}

func scanEdge(row pgx.Row) (*graph.Edge, error) {
	var e graph.Edge
	var raw []byte
	if err := row.Scan(&e.ID, &e.OrgID, &e.FromNode, &e.ToNode, &e.RelationshipType, &raw, &e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy, &e.UserAgent, &e.ClientIP); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &e.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal edge properties: %w", err)
	}
	return &e, nil
}

func (s *Store) ListEdges(ctx context.Context, org string, filter graph.EdgeFilter) ([]graph.Edge, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{org}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("relationship_type = $%d", len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("from_node = $%d", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("to_node = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE %s ORDER BY created_at ASC LIMIT %d`, strings.Join(where, " AND "), limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEdge(ctx context.Context, e *graph.Edge) error {
	props, err := marshalProps(e.Properties)
	if err != nil {
		return fmt.Errorf("marshal edge properties: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO edges (id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id, org_id) DO UPDATE SET
			relationship_type = EXCLUDED.relationship_type,
			properties = EXCLUDED.properties,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			user_agent = EXCLUDED.user_agent,
			client_ip = EXCLUDED.client_ip`,
		e.ID, e.OrgID, e.FromNode, e.ToNode, e.RelationshipType, props, e.CreatedAt, e.UpdatedAt, e.CreatedBy, e.UpdatedBy, e.UserAgent, e.ClientIP)
	return err
}

func (s *Store) DeleteEdge(ctx context.Context, org, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM edges WHERE org_id = $1 AND id = $2`, org, id)
	return err
}

func (s *Store) IncidentEdges(ctx context.Context, org, nodeID string) ([]graph.Edge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE org_id = $1 AND (from_node = $2 OR to_node = $2)`, org, nodeID)
	if err != nil {
		return nil, fmt.Errorf("incident edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEdges(ctx context.Context, org string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM edges WHERE org_id = $1 AND id = ANY($2)`, org, ids)
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) OutgoingEdges(ctx context.Context, org, fromNode string, relationshipTypes []string) ([]graph.Edge, error) {
	args := []interface{}{org, fromNode}
	query := `
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE org_id = $1 AND from_node = $2`
	if len(relationshipTypes) > 0 {
		args = append(args, relationshipTypes)
		query += fmt.Sprintf(" AND relationship_type = ANY($%d)", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("outgoing edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Query performs the outer join: the nodes in org matching the optional
// node type, plus every edge in org touching one of those nodes and
// matching the optional relationship type.
func (s *Store) Query(ctx context.Context, org string, req graph.QueryRequest) ([]graph.Node, []graph.Edge, error) {
	nodeArgs := []interface{}{org}
	nodeWhere := "org_id = $1"
	if req.NodeType != "" {
		nodeArgs = append(nodeArgs, req.NodeType)
		nodeWhere += fmt.Sprintf(" AND type = $%d", len(nodeArgs))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	nodeQuery := fmt.Sprintf(`
		SELECT id, org_id, type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM nodes WHERE %s LIMIT %d`, nodeWhere, limit)

	nodeRows, err := s.pool.Query(ctx, nodeQuery, nodeArgs...)
	if err != nil {
		return nil, nil, fmt.Errorf("query nodes: %w", err)
	}
	var nodes []graph.Node
	for nodeRows.Next() {
		n, err := scanNode(nodeRows)
		if err != nil {
			nodeRows.Close()
			return nil, nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	nodeRows.Close()
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	nodeIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
	}
	edgeArgs := []interface{}{org, nodeIDs}
	edgeWhere := "org_id = $1 AND (from_node = ANY($2) OR to_node = ANY($2))"
	if req.RelationshipType != "" {
		edgeArgs = append(edgeArgs, req.RelationshipType)
		edgeWhere += fmt.Sprintf(" AND relationship_type = $%d", len(edgeArgs))
	}
	edgeQuery := fmt.Sprintf(`
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE %s LIMIT %d`, edgeWhere, limit)

	edgeRows, err := s.pool.Query(ctx, edgeQuery, edgeArgs...)
	if err != nil {
		return nil, nil, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	var edges []graph.Edge
	for edgeRows.Next() {
		e, err := scanEdge(edgeRows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, *e)
	}
	return nodes, edges, edgeRows.Err()
}

func (s *Store) AllNodes(ctx context.Context, org string) ([]graph.Node, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM nodes WHERE org_id = $1`, org)
	if err != nil {
		return nil, fmt.Errorf("all nodes: %w", err)
	}
	defer rows.Close()
	var out []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *Store) AllEdges(ctx context.Context, org string) ([]graph.Edge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, from_node, to_node, relationship_type, properties, created_at, updated_at, created_by, updated_by, user_agent, client_ip
		FROM edges WHERE org_id = $1`, org)
	if err != nil {
		return nil, fmt.Errorf("all edges: %w", err)
	}
	defer rows.Close()
	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

var _ graph.Store = (*Store)(nil)
