package qdrantDB

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger

// Index keeps the active document in a single Qdrant collection using Euclid distance.
// Point ids are insertion positions so ties can be broken the same way as the in-memory index.
type Index struct {
	mu         sync.Mutex
	client     *qdrant.Client
	collection string
	dimension  int
	count      int
}

func NewQdrantIndex(ctx context.Context, settings config.VectorSettings, dimension int) (*Index, error) {
	logger = logger_i.NewLogger("Qdrant")
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	if settings.QdrantCollection == "" {
		return nil, errors.New("empty collection name")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     settings.QdrantHost,
		Port:     settings.QdrantPort,
		APIKey:   settings.QdrantAPIKey,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, err
	}

	x := &Index{client: client, collection: settings.QdrantCollection, dimension: dimension}
	// start from an empty collection, a previous process may have left points behind
	if err := x.Reset(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	go closeQdrant(ctx, client)
	return x, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func (x *Index) Dimension() int {
	return x.dimension
}

func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.count
}

// Reset drops and recreates the collection. Dropping a missing collection is not an error.
func (x *Index) Reset(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return fmt.Errorf("qdrant collection check failed: %w", err)
	}
	if exists {
		if err := x.client.DeleteCollection(ctx, x.collection); err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("qdrant drop failed: %w", err)
		}
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(x.dimension),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("qdrant create failed: %w", err)
	}

	x.count = 0
	metrics.SetIndexedChunks(0)
	return nil
}

func (x *Index) Insert(ctx context.Context, embeddings [][]float32, metadata []commonModels.Chunk) error {
	if len(embeddings) != len(metadata) {
		return fmt.Errorf("%w: %d embeddings, %d chunks", errorModel.ErrLengthMismatch, len(embeddings), len(metadata))
	}
	for i, e := range embeddings {
		if len(e) != x.dimension {
			return fmt.Errorf("%w: embedding %d has %d values, index expects %d", errorModel.ErrDimensionMismatch, i, len(e), x.dimension)
		}
	}
	if len(embeddings) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	points := make([]*qdrant.PointStruct, len(metadata))
	for i, chunk := range metadata {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(x.count + i)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(chunkToPayload(chunk)),
		}
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	x.count += len(points)
	metrics.SetIndexedChunks(x.count)
	return nil
}

func (x *Index) Search(ctx context.Context, query []float32, topK int) ([]commonModels.Chunk, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", errorModel.ErrDimensionMismatch, len(query), x.dimension)
	}
	if topK <= 0 || x.Len() == 0 {
		return []commonModels.Chunk{}, nil
	}

	result, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(queryLimit(topK, x.Len()))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger_i.FromContext(ctx, "Qdrant").Error("Error querying Qdrant", "error", err)
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	hits := rankHits(result, topK)
	chunks := make([]commonModels.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, payloadToChunk(hit.GetPayload()))
	}
	return chunks, nil
}

// tieHeadroom extra points are fetched past topK so an equal-distance point inserted earlier
// can still win the last slot. Ties wider than that keep Qdrant's own order.
const tieHeadroom = 8

func queryLimit(topK, stored int) int {
	return min(topK+tieHeadroom, max(stored, topK))
}

// rankHits sorts and keeps the first topK.
func rankHits(hits []*qdrant.ScoredPoint, topK int) []*qdrant.ScoredPoint {
	sortHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// sortHits orders by distance, then by insertion position.
func sortHits(hits []*qdrant.ScoredPoint) {
	slices.SortStableFunc(hits, func(a, b *qdrant.ScoredPoint) int {
		if c := cmp.Compare(a.GetScore(), b.GetScore()); c != 0 {
			return c
		}
		return cmp.Compare(a.GetId().GetNum(), b.GetId().GetNum())
	})
}

func chunkToPayload(c commonModels.Chunk) map[string]any {
	return map[string]any{
		"document_id": c.DocumentId,
		"chunk_id":    c.ChunkId,
		"page_number": c.PageNumber,
		"source":      c.Source,
		"chunk_text":  c.ChunkText,
	}
}

func payloadToChunk(p map[string]*qdrant.Value) commonModels.Chunk {
	return commonModels.Chunk{
		DocumentId: p["document_id"].GetStringValue(),
		ChunkId:    int(p["chunk_id"].GetIntegerValue()),
		PageNumber: int(p["page_number"].GetIntegerValue()),
		Source:     p["source"].GetStringValue(),
		ChunkText:  p["chunk_text"].GetStringValue(),
	}
}
