package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/chunker"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB/flatIndex"
)

// --- Mocks ---

type mockEmbedder struct {
	batchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return vectorFor(text), nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchFunc != nil {
		return m.batchFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int { return 2 }

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), float32(text[0])}
}

type mockLLM struct {
	onComplete func(system, user string, opts llm.CompletionOptions) (string, error)
	lastUser   string
}

func (m *mockLLM) Complete(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	m.lastUser = user
	if m.onComplete != nil {
		return m.onComplete(system, user, opts)
	}
	return "a short summary", nil
}

func newTestOrchestrator(t *testing.T, size, overlap int, settings config.IngestSettings) (*Orchestrator, *flatIndex.Index, *mockEmbedder, *mockLLM) {
	t.Helper()
	c, err := chunker.New(size, overlap)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}
	index, err := flatIndex.New(2)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	emb := &mockEmbedder{}
	sum := &mockLLM{}
	return NewOrchestrator(c, emb, index, sum, settings), index, emb, sum
}

func defaultSettings() config.IngestSettings {
	return config.Defaults().Ingest
}

// --- Unit Tests ---

func TestPrepareChunks_IdsContinueAcrossPages(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, 10, 0, defaultSettings())

	chunks := o.PrepareChunks(commonModels.IngestRequest{
		DocumentId: "doc.pdf",
		Source:     "doc.pdf",
		Pages: []commonModels.Page{
			{Number: 1, Text: "aaaaaaaaaabbbbb"},
			{Number: 2, Text: " \n\t "},
			{Number: 3, Text: "ccc\nddd"},
		},
	})

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	wantPages := []int{1, 1, 3}
	for i, c := range chunks {
		if c.ChunkId != i+1 {
			t.Errorf("chunk %d has id %d", i, c.ChunkId)
		}
		if c.PageNumber != wantPages[i] {
			t.Errorf("chunk %d on page %d, want %d", i, c.PageNumber, wantPages[i])
		}
		if c.DocumentId != "doc.pdf" || c.Source != "doc.pdf" {
			t.Errorf("metadata mismatch in chunk %d: %+v", i, c)
		}
	}
	if chunks[2].ChunkText != "ccc ddd" {
		t.Errorf("page text was not cleaned: %q", chunks[2].ChunkText)
	}
}

func TestIngest_ReplacesPreviousDocument(t *testing.T) {
	ctx := context.Background()
	o, index, _, _ := newTestOrchestrator(t, 900, 100, defaultSettings())

	if _, err := o.IngestText(ctx, "old", "old", "old document text", 0); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := o.IngestText(ctx, "new", "new", "new document", 0)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if index.Len() != 1 {
		t.Fatalf("index should only hold the new document, has %d chunks", index.Len())
	}
	hits, _ := index.Search(ctx, vectorFor("new document"), 5)
	if len(hits) != 1 || hits[0].DocumentId != "new" {
		t.Errorf("unexpected hits %+v", hits)
	}
	if res.Status != config.IngestStatusReady || res.DocumentId != "new" || res.EmbeddedChunks != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestIngest_CapAndSummaryInput(t *testing.T) {
	settings := defaultSettings()
	settings.MaxEmbeddedChunks = 2
	o, index, _, sum := newTestOrchestrator(t, 4, 0, settings)

	res, err := o.IngestText(context.Background(), "d", "d", "aaaabbbbccccdddd", 0)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.EmbeddedChunks != 2 || index.Len() != 2 {
		t.Errorf("expected 2 embedded chunks, got result=%d index=%d", res.EmbeddedChunks, index.Len())
	}
	// the summary sees chunks beyond the embedding cap
	if !strings.Contains(sum.lastUser, "dddd") {
		t.Errorf("summary prompt missing later chunks: %q", sum.lastUser)
	}
	if res.Summary != "a short summary" {
		t.Errorf("summary got %q", res.Summary)
	}
}

func TestIngest_ZeroCapEmbedsEverything(t *testing.T) {
	settings := defaultSettings()
	settings.MaxEmbeddedChunks = 0
	o, index, _, _ := newTestOrchestrator(t, 2, 0, settings)

	res, err := o.IngestText(context.Background(), "d", "d", strings.Repeat("ab", 40), 0)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.EmbeddedChunks != 40 || index.Len() != 40 {
		t.Errorf("expected 40 chunks, got %d / %d", res.EmbeddedChunks, index.Len())
	}
}

func TestIngest_BatchesEmbeddingCalls(t *testing.T) {
	settings := defaultSettings()
	settings.EmbeddingBatchSize = 2
	o, _, emb, _ := newTestOrchestrator(t, 1, 0, settings)

	if _, err := o.IngestText(context.Background(), "d", "d", "abcde", 0); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if emb.calls != 3 {
		t.Errorf("Expected 3 embedding batches, got %d", emb.calls)
	}
}

func TestIngest_FailedLaterBatchLeavesIndexEmpty(t *testing.T) {
	ctx := context.Background()
	settings := defaultSettings()
	settings.EmbeddingBatchSize = 2
	settings.MaxEmbeddedChunks = 0
	o, index, emb, _ := newTestOrchestrator(t, 1, 0, settings)

	emb.batchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if emb.calls == 2 {
			return nil, errorModel.NewProviderError("openai", "embedding", errors.New("boom"))
		}
		out := make([][]float32, len(texts))
		for i, txt := range texts {
			out[i] = vectorFor(txt)
		}
		return out, nil
	}

	_, err := o.IngestText(ctx, "d", "d", "abcde", 0)
	if !errors.Is(err, errorModel.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if index.Len() != 0 {
		t.Fatalf("index holds %d chunks of a failed document", index.Len())
	}
	found, err := index.Search(ctx, vectorFor("a"), 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("search after failed ingestion returned %d chunks", len(found))
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	o, index, emb, _ := newTestOrchestrator(t, 900, 100, defaultSettings())
	_, _ = o.IngestText(ctx, "old", "old", "old text", 0)

	_, err := o.Ingest(ctx, commonModels.IngestRequest{DocumentId: "empty", Pages: []commonModels.Page{{Number: 1, Text: "\n \n"}}})
	if !errors.Is(err, errorModel.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if index.Len() != 0 {
		t.Errorf("index must be reset even when ingestion fails")
	}
	if emb.calls != 1 {
		t.Errorf("embedder should not be called for an empty document")
	}
}

func TestIngest_ProviderFailures(t *testing.T) {
	providerErr := errorModel.NewProviderError("openai", "embedding", errors.New("timeout"))

	tests := []struct {
		name    string
		setup   func(e *mockEmbedder, l *mockLLM)
		wantErr error
	}{
		{
			name: "Failure_Embedding",
			setup: func(e *mockEmbedder, l *mockLLM) {
				e.batchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
					return nil, providerErr
				}
			},
			wantErr: errorModel.ErrProviderFailure,
		},
		{
			name: "Failure_Embedding_Count",
			setup: func(e *mockEmbedder, l *mockLLM) {
				e.batchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
					return [][]float32{}, nil
				}
			},
			wantErr: errorModel.ErrLengthMismatch,
		},
		{
			name: "Failure_Embedding_Dimension",
			setup: func(e *mockEmbedder, l *mockLLM) {
				e.batchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
					return [][]float32{{1, 2, 3}}, nil
				}
			},
			wantErr: errorModel.ErrDimensionMismatch,
		},
		{
			name: "Failure_Summary",
			setup: func(e *mockEmbedder, l *mockLLM) {
				l.onComplete = func(system, user string, opts llm.CompletionOptions) (string, error) {
					return "", errorModel.NewProviderError("openai", "completion", errors.New("down"))
				}
			},
			wantErr: errorModel.ErrProviderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, emb, sum := newTestOrchestrator(t, 900, 100, defaultSettings())
			tt.setup(emb, sum)

			_, err := o.IngestText(context.Background(), "d", "d", "some text", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummaryOptions(t *testing.T) {
	o, _, _, sum := newTestOrchestrator(t, 900, 100, defaultSettings())
	sum.onComplete = func(system, user string, opts llm.CompletionOptions) (string, error) {
		if opts.Temperature != config.SummaryTemperature || opts.MaxTokens != config.SummaryMaxTokens {
			t.Errorf("unexpected summary options %+v", opts)
		}
		if !strings.HasPrefix(user, "Document content:\n") {
			t.Errorf("unexpected summary prompt %q", user)
		}
		return "ok", nil
	}
	if _, err := o.IngestText(context.Background(), "d", "d", "text", 0); err != nil {
		t.Fatal(err)
	}
}

func TestExtractPDF_NotAPDF(t *testing.T) {
	_, err := ExtractPDF([]byte("definitely not a pdf"))
	if !errors.Is(err, errorModel.ErrUnreadableDocument) {
		t.Errorf("expected ErrUnreadableDocument, got %v", err)
	}
}

func TestURLFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>t</title><style>p{}</style></head>
<body><script>var x = 1;</script><h1>Heading</h1><p>First   paragraph.</p></body></html>`))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("just text"))
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewURLFetcher(srv.Client())
	ctx := context.Background()

	pages, err := f.Fetch(ctx, srv.URL+"/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 0 {
		t.Fatalf("unexpected pages %+v", pages)
	}
	if got := chunker.Clean(pages[0].Text); got != "Heading First paragraph." {
		t.Errorf("visible text got %q", got)
	}

	pages, err = f.Fetch(ctx, srv.URL+"/plain")
	if err != nil || pages[0].Text != "just text" {
		t.Errorf("plain text fetch got %+v, %v", pages, err)
	}

	for _, bad := range []string{srv.URL + "/missing", srv.URL + "/image", "ftp://example.com/x", "not a url"} {
		if _, err := f.Fetch(ctx, bad); !errors.Is(err, errorModel.ErrUnreadableDocument) {
			t.Errorf("%s: expected ErrUnreadableDocument, got %v", bad, err)
		}
	}
}
