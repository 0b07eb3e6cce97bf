package rag_test

import (
	"context"
	"strings"
	"sync"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	OnReset  func(ctx context.Context) error
	OnInsert func(ctx context.Context, embeddings [][]float32, metadata []commonModels.Chunk) error
	OnSearch func(ctx context.Context, query []float32, topK int) ([]commonModels.Chunk, error)
}

func (m *MockIndex) Reset(ctx context.Context) error {
	if m.OnReset != nil {
		return m.OnReset(ctx)
	}
	return nil
}

func (m *MockIndex) Insert(ctx context.Context, e [][]float32, md []commonModels.Chunk) error {
	if m.OnInsert != nil {
		return m.OnInsert(ctx, e, md)
	}
	return nil
}

func (m *MockIndex) Search(ctx context.Context, q []float32, topK int) ([]commonModels.Chunk, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, q, topK)
	}
	return []commonModels.Chunk{{DocumentId: "doc", ChunkId: 1, PageNumber: 1, Source: "doc", ChunkText: "default context"}}, nil
}

func (m *MockIndex) Len() int       { return 0 }
func (m *MockIndex) Dimension() int { return letterDim }

// MockEmbedder embeds text as letter counts so similar wording lands close together.
type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

const letterDim = 26

func letterVector(text string) []float32 {
	v := make([]float32, letterDim)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return letterVector(text), nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (m *MockEmbedder) Dimension() int { return letterDim }

// MockLLM implements llm.Provider and remembers the prompts it was given.
type MockLLM struct {
	OnComplete func(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Complete(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, user)
	m.mu.Unlock()
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, user, opts)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}
