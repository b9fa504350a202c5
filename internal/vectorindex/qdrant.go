// Package vectorindex implements the graph.VectorIndex (VX) port: the
// side-channel similarity index that edge vectorization (internal/graph
// vectorizeEdge) upserts into on a best-effort basis, using the Qdrant
// gRPC wire client.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/lineagehub/graphd/internal/graph"
)

// QdrantIndex implements graph.VectorIndex against a Qdrant instance.
type QdrantIndex struct {
	conn  *grpc.ClientConn
	points qdrant.PointsClient
	apiKey string
}

// NewQdrantIndex dials addr (host:port). apiKey may be empty for
// unauthenticated/local instances.
func NewQdrantIndex(addr, apiKey string) (*QdrantIndex, error) {
	creds := insecure.NewCredentials()
	if apiKey != "" {
		creds = credentials.NewTLS(nil)
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("qdrant dial: %w", err)
	}
	return &QdrantIndex{
		conn:  conn,
		points: qdrant.NewPointsClient(conn),
		apiKey: apiKey,
	}, nil
}

func (q *QdrantIndex) withAuth(ctx context.Context) context.Context {
	if q.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", q.apiKey)
}

// UpsertPoint writes a single vector point keyed by id into collection,
// carrying payload as Qdrant point payload fields.
func (q *QdrantIndex) UpsertPoint(ctx context.Context, collection, id string, vector []float64, payload map[string]interface{}) error {
	vec32 := make([]float32, len(vector))
	for i, v := range vector {
		vec32[i] = float32(v)
	}

	fields := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		fields[k] = toQdrantValue(v)
	}

	_, err := q.points.Upsert(q.withAuth(ctx), &qdrant.UpsertPoints{
		CollectionName: collection,
		Points: []*qdrant.PointStruct{
			{
				Id:   qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vec32...),
				Payload: fields,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func toQdrantValue(v interface{}) *qdrant.Value {
	switch t := v.(type) {
	case string:
		return qdrant.NewValueString(t)
	case bool:
		return qdrant.NewValueBool(t)
	case int:
		return qdrant.NewValueInt(int64(t))
	case int64:
		return qdrant.NewValueInt(t)
	case float64:
		return qdrant.NewValueDouble(t)
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", t))
	}
}

// HealthCheck lists collections as a lightweight reachability probe —
// Qdrant's gRPC surface has no dedicated ping RPC.
func (q *QdrantIndex) HealthCheck(ctx context.Context) error {
	collections := qdrant.NewCollectionsClient(q.conn)
	if _, err := collections.List(q.withAuth(ctx), &qdrant.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

var _ graph.VectorIndex = (*QdrantIndex)(nil)
