package rag

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds configuration for the Qdrant connection and collection.
type QdrantConfig struct {
	URL            string // HTTP URL, e.g. "http://localhost:6333"; gRPC is the next port
	CollectionName string
	Dimension      int
}

// DefaultQdrantConfig returns the default local Qdrant configuration.
func DefaultQdrantConfig() QdrantConfig {
	return QdrantConfig{
		URL:            "http://localhost:6333",
		CollectionName: "cardsage_cards",
		Dimension:      1536,
	}
}

// QdrantStore implements VectorStore using Qdrant. Chunk IDs must be UUIDs.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig
}

// NewQdrantStore connects to Qdrant and ensures the collection exists with the
// configured vector size.
func NewQdrantStore(ctx context.Context, config QdrantConfig) (*QdrantStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	host, port, err := grpcEndpoint(config.URL)
	if err != nil {
		return nil, err
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &QdrantStore{client: c, config: config}
	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return store, nil
}

// grpcEndpoint derives the gRPC host and port from the HTTP URL.
func grpcEndpoint(rawURL string) (string, int, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if p := parsed.Port(); p != "" {
		httpPort, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		port = httpPort + 1
	}
	return host, port, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return s.checkDimension(ctx)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.config.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *QdrantStore) checkDimension(ctx context.Context) error {
	info, err := s.client.GetCollectionInfo(ctx, s.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	if info.Config == nil || info.Config.Params == nil {
		return nil
	}
	params := info.Config.Params.GetVectorsConfig().GetParams()
	if params != nil && int(params.Size) != s.config.Dimension {
		return fmt.Errorf("%w: collection has %d, expected %d", ErrInvalidDimension, params.Size, s.config.Dimension)
	}
	return nil
}

// Insert upserts card chunks as points.
func (s *QdrantStore) Insert(ctx context.Context, chunks []CardChunk) error {
	if len(chunks) == 0 {
		return ErrEmptyRecords
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, ch := range chunks {
		if len(ch.Embedding) != s.config.Dimension {
			return fmt.Errorf("%w: chunk %s has %d dims, expected %d", ErrInvalidDimension, ch.ID, len(ch.Embedding), s.config.Dimension)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(ch.ID),
			Vectors: qdrant.NewVectors(ch.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldCardName: ch.CardName,
				fieldText:     ch.Text,
			}),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.CollectionName,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return nil
}

// Flush is a no-op: upserts wait for the write to be applied.
func (s *QdrantStore) Flush(context.Context) error {
	return nil
}

// Search queries the nearest points, optionally filtered by card name.
func (s *QdrantStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error) {
	if len(queryVector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.config.Dimension, len(queryVector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrSearchFailed, topK)
	}

	limit := uint64(topK)
	req := &qdrant.QueryPoints{
		CollectionName: s.config.CollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if opts != nil && opts.MinScore > 0 {
		threshold := opts.MinScore
		req.ScoreThreshold = &threshold
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	chunks := make([]ContextChunk, 0, len(points))
	for _, p := range points {
		chunk := ContextChunk{Score: p.Score}
		if p.Id != nil {
			chunk.ID = p.Id.GetUuid()
		}
		if v, ok := p.Payload[fieldCardName]; ok {
			chunk.CardName = v.GetStringValue()
		}
		if v, ok := p.Payload[fieldText]; ok {
			chunk.Text = v.GetStringValue()
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Query checks which chunk IDs exist in the collection.
func (s *QdrantStore) Query(ctx context.Context, ids []string) (map[string]bool, error) {
	existence := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existence, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		existence[id] = false
		pointIDs[i] = qdrant.NewID(id)
	}

	found, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.config.CollectionName,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	for _, p := range found {
		if p.Id != nil {
			existence[p.Id.GetUuid()] = true
		}
	}
	return existence, nil
}

// Delete removes points by chunk ID.
func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.config.CollectionName,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// GetStats returns the point count and status of the collection.
func (s *QdrantStore) GetStats(ctx context.Context) (map[string]any, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var count uint64
	if info.PointsCount != nil {
		count = *info.PointsCount
	}
	return map[string]any{
		"backend":    "qdrant",
		"collection": s.config.CollectionName,
		"row_count":  count,
		"status":     info.Status.String(),
	}, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
