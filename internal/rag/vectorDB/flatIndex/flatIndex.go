package flatIndex

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
)

// Index is an exact brute-force L2 index. Vectors live in one contiguous float32 slice,
// row i belongs to metadata[i].
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   []float32
	metadata  []commonModels.Chunk
}

func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	return &Index{dimension: dimension}, nil
}

func (x *Index) Dimension() int {
	return x.dimension
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.metadata)
}

func (x *Index) Reset(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = nil
	x.metadata = nil
	metrics.SetIndexedChunks(0)
	return nil
}

func (x *Index) Insert(_ context.Context, embeddings [][]float32, metadata []commonModels.Chunk) error {
	if len(embeddings) != len(metadata) {
		return fmt.Errorf("%w: %d embeddings, %d chunks", errorModel.ErrLengthMismatch, len(embeddings), len(metadata))
	}
	for i, e := range embeddings {
		if len(e) != x.dimension {
			return fmt.Errorf("%w: embedding %d has %d values, index expects %d", errorModel.ErrDimensionMismatch, i, len(e), x.dimension)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = slices.Grow(x.vectors, len(embeddings)*x.dimension)
	for _, e := range embeddings {
		x.vectors = append(x.vectors, e...)
	}
	x.metadata = append(x.metadata, metadata...)
	metrics.SetIndexedChunks(len(x.metadata))
	return nil
}

type hit struct {
	position int
	distance float32
}

func (x *Index) Search(_ context.Context, query []float32, topK int) ([]commonModels.Chunk, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", errorModel.ErrDimensionMismatch, len(query), x.dimension)
	}
	if topK <= 0 {
		return []commonModels.Chunk{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]hit, len(x.metadata))
	for i := range x.metadata {
		row := x.vectors[i*x.dimension : (i+1)*x.dimension]
		hits[i] = hit{position: i, distance: squaredL2(query, row)}
	}

	// stable sort keeps insertion order between equal distances
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(a.distance, b.distance)
	})

	n := min(topK, len(hits))
	results := make([]commonModels.Chunk, n)
	for i := 0; i < n; i++ {
		results[i] = x.metadata[hits[i].position]
	}
	return results, nil
}

// squared distance ranks identically to L2 and stays in float32
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
