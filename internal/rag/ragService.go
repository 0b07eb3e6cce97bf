package rag

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/internal/rag/chunker"
	"github.com/akolanti/ChatDocs/internal/rag/embedding"
	"github.com/akolanti/ChatDocs/internal/rag/ingest"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/internal/rag/prompt"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

// Service is the only entry point handlers, workers and the MCP server use. The index,
// embedder and model stay behind it.
type Service interface {
	IngestDocument(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error)
	Answer(ctx context.Context, question string, history []commonModels.ConversationTurn) (commonModels.Answer, error)
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	index       vectorDB.Index
	llmProvider llm.Provider
	embedder    embedding.Embedder
	ingestor    *ingest.Orchestrator
	retrieval   config.RetrievalSettings
	logger      *logger_i.Logger

	// ingestion holds the write side from reset until the new document is inserted,
	// searches hold the read side, so a search never sees a half-built index
	docMu sync.RWMutex
}

func NewService(index vectorDB.Index, llmProvider llm.Provider, em embedding.Embedder, settings config.Settings) (Service, error) {
	c, err := chunker.New(settings.Chunking.Size, settings.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	return &service{
		index:       index,
		llmProvider: llmProvider,
		embedder:    em,
		ingestor:    ingest.NewOrchestrator(c, em, index, llmProvider, settings.Ingest),
		retrieval:   settings.Retrieval,
		logger:      logger_i.NewLogger("RAG Service"),
	}, nil
}

func (s *service) IngestDocument(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	result, err := s.ingestor.Ingest(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logger_i.FromContext(ctx, "RAG Service").Error("INGESTION_FAILURE", "documentId", req.DocumentId, "error", err)
	}
	metrics.CountIngestedDocument(string(req.ContentType), outcome)
	return result, err
}

func (s *service) Answer(ctx context.Context, question string, history []commonModels.ConversationTurn) (commonModels.Answer, error) {
	return s.answer(ctx, question, history, func(jobModel.InternalStatus) {})
}

// ProcessRequest answers a queued chat job and records the outcome on the job.
func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureJobMetrics(string(jobt.Status), time.Since(start)) }()

	log := logger_i.FromContext(ctx, "RAG Service").With("jobId", jobt.Id)
	jobt.CurrentStep = jobModel.RAGCall

	ans, err := s.answer(ctx, jobt.JobPayload.Question, jobt.JobPayload.History, func(step jobModel.InternalStatus) {
		jobt = logOutput(jobt, step, log)
	})
	if err != nil {
		jobt = s.jobError(ctx, jobt, err)
		return jobt
	}
	jobt = returnOutput(jobt, ans)
	return jobt
}

func (s *service) answer(ctx context.Context, question string, history []commonModels.ConversationTurn, onStep func(jobModel.InternalStatus)) (commonModels.Answer, error) {
	onStep(jobModel.EmbeddingAPICall)
	queryVector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		return commonModels.Answer{}, err
	}

	onStep(jobModel.VectorDBCall)
	chunks, err := s.executeVectorSearchStep(ctx, queryVector)
	if err != nil {
		return commonModels.Answer{}, err
	}

	userPrompt := prompt.BuildAnswerPrompt(
		prompt.BuildContext(chunks),
		prompt.RenderHistory(history, s.retrieval.HistoryWindow),
		question,
	)

	onStep(jobModel.LLMCall)
	text, err := s.executeLLMStep(ctx, userPrompt)
	if err != nil {
		return commonModels.Answer{}, err
	}

	return toAnswer(text, chunks), nil
}

func toAnswer(text string, chunks []commonModels.Chunk) commonModels.Answer {
	ans := commonModels.Answer{
		Answer:      text,
		Sources:     make([]commonModels.SourceRef, 0, len(chunks)),
		UsedContext: make([]string, 0, len(chunks)),
	}
	for _, c := range chunks {
		ans.Sources = append(ans.Sources, commonModels.SourceRef{
			PageNumber: c.PageNumber,
			ChunkId:    c.ChunkId,
			Source:     c.Source,
		})
		ans.UsedContext = append(ans.UsedContext, c.ChunkText)
	}
	return ans
}
