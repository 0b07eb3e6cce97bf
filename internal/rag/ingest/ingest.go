package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/internal/rag/chunker"
	"github.com/akolanti/ChatDocs/internal/rag/embedding"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/internal/rag/prompt"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

// Orchestrator replaces whatever the index holds with one document's chunks and summarizes it.
// It does not serialize callers; the owning service does.
type Orchestrator struct {
	chunker    *chunker.Chunker
	embedder   embedding.Embedder
	index      vectorDB.Index
	summarizer llm.Provider
	settings   config.IngestSettings
}

func NewOrchestrator(c *chunker.Chunker, e embedding.Embedder, index vectorDB.Index, summarizer llm.Provider, settings config.IngestSettings) *Orchestrator {
	if settings.EmbeddingBatchSize <= 0 {
		settings.EmbeddingBatchSize = config.EmbeddingBatchSize
	}
	return &Orchestrator{
		chunker:    c,
		embedder:   e,
		index:      index,
		summarizer: summarizer,
		settings:   settings,
	}
}

// IngestText is the single-page form: all of text is numbered pageHint.
func (o *Orchestrator) IngestText(ctx context.Context, documentId, source, text string, pageHint int) (commonModels.IngestResult, error) {
	return o.Ingest(ctx, commonModels.IngestRequest{
		DocumentId: documentId,
		Source:     source,
		Pages:      []commonModels.Page{{Number: pageHint, Text: text}},
	})
}

func (o *Orchestrator) Ingest(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
	log := logger_i.FromContext(ctx, "Document Ingestion").With("documentId", req.DocumentId)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ingestion", time.Since(start)) }()

	// the previous document is gone even if this one fails
	if err := o.index.Reset(ctx); err != nil {
		return commonModels.IngestResult{}, fmt.Errorf("resetting index: %w", err)
	}

	chunks := o.PrepareChunks(req)
	log.Debug("Prepared chunks", "pages", len(req.Pages), "chunks", len(chunks))
	if len(chunks) == 0 {
		return commonModels.IngestResult{}, errorModel.ErrEmptyDocument
	}

	toEmbed := chunks
	if limit := o.settings.MaxEmbeddedChunks; limit > 0 && len(toEmbed) > limit {
		log.Info("Embedding cap reached, trailing chunks are not indexed", "cap", limit, "dropped", len(toEmbed)-limit)
		toEmbed = toEmbed[:limit]
	}

	if err := o.embedAndInsert(ctx, toEmbed); err != nil {
		// earlier batches are already searchable; drop them so no half document stays behind
		if resetErr := o.index.Reset(context.WithoutCancel(ctx)); resetErr != nil {
			log.Error("Failed to clear partially indexed document", "error", resetErr)
		}
		return commonModels.IngestResult{}, err
	}

	summary, err := o.summarize(ctx, chunks)
	if err != nil {
		return commonModels.IngestResult{}, err
	}

	log.Info("Document ready", "embeddedChunks", len(toEmbed))
	return commonModels.IngestResult{
		DocumentId:     req.DocumentId,
		Summary:        summary,
		EmbeddedChunks: len(toEmbed),
		Status:         config.IngestStatusReady,
	}, nil
}

// PrepareChunks cleans and splits each page. Chunk ids run 1..N across the whole document
// and pages that clean to nothing are skipped.
func (o *Orchestrator) PrepareChunks(req commonModels.IngestRequest) []commonModels.Chunk {
	var allChunks []commonModels.Chunk
	chunkCounter := 0
	for _, page := range req.Pages {
		cleaned := chunker.Clean(page.Text)
		if cleaned == "" {
			continue
		}
		for _, text := range o.chunker.Split(cleaned) {
			chunkCounter++
			allChunks = append(allChunks, commonModels.Chunk{
				DocumentId: req.DocumentId,
				ChunkId:    chunkCounter,
				PageNumber: page.Number,
				Source:     req.Source,
				ChunkText:  text,
			})
		}
	}
	return allChunks
}

func (o *Orchestrator) embedAndInsert(ctx context.Context, chunks []commonModels.Chunk) error {
	batchSize := o.settings.EmbeddingBatchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.ChunkText
		}

		embedStart := time.Now()
		vectors, err := o.embedder.BatchEmbedding(ctx, texts)
		metrics.CaptureExecutionMetrics("embedding", time.Since(embedStart))
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		if err := o.index.Insert(ctx, vectors, currentBatch); err != nil {
			return fmt.Errorf("inserting batch failed: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) summarize(ctx context.Context, chunks []commonModels.Chunk) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("summary", time.Since(start)) }()

	userPrompt := prompt.BuildSummaryPrompt(chunks, o.settings.SummaryChunkCount, o.settings.SummaryMaxInputChars)
	summary, err := o.summarizer.Complete(ctx, prompt.SummarySystemPrompt, userPrompt, llm.CompletionOptions{
		Temperature: config.SummaryTemperature,
		MaxTokens:   o.settings.SummaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return summary, nil
}
