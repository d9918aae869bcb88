package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/andrew/rag-pipeline/pkg/models"
)

// Payload field names used for stored items in Qdrant.
const (
	payloadRecordID    = "record_id"
	payloadText        = "text"
	payloadDescription = "description"
	payloadMetadata    = "additional_metadata"
)

// QdrantStore is a vector store backed by a Qdrant collection over gRPC.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
}

// NewQdrantStore connects to a Qdrant server and binds to the named
// collection. The collection is not created until EnsureCollection is called.
func NewQdrantStore(host string, port int, collection string) (*QdrantStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	return &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
	}, nil
}

// EnsureCollection creates the collection if it does not exist yet.
// Creating with the same parameters again is a no-op.
func (s *QdrantStore) EnsureCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	distance, err := toQdrantDistance(cfg.Distance)
	if err != nil {
		return err
	}

	params := &qdrantclient.VectorParams{
		Size:     uint64(cfg.Dimension),
		Distance: distance,
	}
	if cfg.HNSWM > 0 || cfg.HNSWEfConstruct > 0 {
		hnsw := &qdrantclient.HnswConfigDiff{}
		if cfg.HNSWM > 0 {
			m := cfg.HNSWM
			hnsw.M = &m
		}
		if cfg.HNSWEfConstruct > 0 {
			ef := cfg.HNSWEfConstruct
			hnsw.EfConstruct = &ef
		}
		params.HnswConfig = hnsw
	}

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: params,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
	}
	return nil
}

// Get looks up a single item by its record id.
func (s *QdrantStore) Get(ctx context.Context, id string, withEmbedding bool) (models.StoredItem, error) {
	resp, err := s.points.Get(ctx, &qdrantclient.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrantclient.PointId{pointID(id)},
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &qdrantclient.WithVectorsSelector{
			SelectorOptions: &qdrantclient.WithVectorsSelector_Enable{Enable: withEmbedding},
		},
	})
	if err != nil {
		return models.StoredItem{}, fmt.Errorf("failed to get point %q: %w", id, err)
	}
	if len(resp.GetResult()) == 0 {
		return models.StoredItem{}, ErrNotFound
	}

	point := resp.GetResult()[0]
	item := models.StoredItem{
		ID:                 payloadString(point.GetPayload(), payloadRecordID),
		Text:               payloadString(point.GetPayload(), payloadText),
		Description:        payloadString(point.GetPayload(), payloadDescription),
		AdditionalMetadata: payloadString(point.GetPayload(), payloadMetadata),
	}
	if withEmbedding {
		item.Embedding = point.GetVectors().GetVector().GetData()
	}
	return item, nil
}

// Upsert writes an item into the collection. The point id is derived
// deterministically from the record id, so writing the same id twice
// replaces the earlier point instead of creating a duplicate.
func (s *QdrantStore) Upsert(ctx context.Context, item models.StoredItem) error {
	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*qdrantclient.PointStruct{
			{
				Id: pointID(item.ID),
				Vectors: &qdrantclient.Vectors{
					VectorsOptions: &qdrantclient.Vectors_Vector{
						Vector: &qdrantclient.Vector{Data: item.Embedding},
					},
				},
				Payload: map[string]*qdrantclient.Value{
					payloadRecordID:    stringValue(item.ID),
					payloadText:        stringValue(item.Text),
					payloadDescription: stringValue(item.Description),
					payloadMetadata:    stringValue(item.AdditionalMetadata),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point %q: %w", item.ID, err)
	}
	return nil
}

// Search performs a similarity search and returns results ordered by
// descending relevance.
func (s *QdrantStore) Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 1
	}
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{payloadText, payloadMetadata},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	results := make([]models.SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, models.SearchResult{
			Text:               payloadString(point.GetPayload(), payloadText),
			Relevance:          clampRelevance(point.GetScore()),
			AdditionalMetadata: payloadString(point.GetPayload(), payloadMetadata),
		})
	}
	return results, nil
}

// Drop deletes the collection.
func (s *QdrantStore) Drop(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: s.collection,
	})
	if err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", s.collection, err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func (s *QdrantStore) collectionExists(ctx context.Context) (bool, error) {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range resp.GetCollections() {
		if col.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// pointID maps a caller-assigned record id onto Qdrant's id space.
// Qdrant accepts only numeric or UUID point ids, so the record id is hashed
// into a name-based UUID. The mapping is deterministic, which keeps upserts
// of the same record id idempotent.
func pointID(id string) *qdrantclient.PointId {
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{
			Uuid: uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String(),
		},
	}
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func payloadString(payload map[string]*qdrantclient.Value, field string) string {
	if v, ok := payload[field]; ok {
		return v.GetStringValue()
	}
	return ""
}

// clampRelevance keeps scores inside [0,1]. Cosine similarity can dip below
// zero for opposing vectors; anything negative carries no grounding value.
func clampRelevance(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func toQdrantDistance(name string) (qdrantclient.Distance, error) {
	switch name {
	case "", DistanceCosine:
		return qdrantclient.Distance_Cosine, nil
	case DistanceEuclidean:
		return qdrantclient.Distance_Euclid, nil
	case DistanceDot:
		return qdrantclient.Distance_Dot, nil
	default:
		return qdrantclient.Distance_UnknownDistance, fmt.Errorf("unsupported distance metric %q", name)
	}
}
