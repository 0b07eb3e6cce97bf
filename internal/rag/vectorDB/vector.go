package vectorDB

import (
	"context"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
)

// Index holds at most one document's chunks. Position i of the stored embeddings and
// the stored metadata always describe the same chunk.
type Index interface {
	Reset(ctx context.Context) error
	// Insert appends embeddings and metadata in lockstep. Mismatched lengths or a wrong
	// dimension fail without storing anything.
	Insert(ctx context.Context, embeddings [][]float32, metadata []commonModels.Chunk) error
	// Search returns up to topK chunks ordered from closest to farthest (L2).
	Search(ctx context.Context, query []float32, topK int) ([]commonModels.Chunk, error)
	Len() int
	Dimension() int
}
