package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/internal/rag/prompt"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans commonModels.Answer) jobModel.Job {
	job.JobPayload.Answer = ans.Answer
	job.JobPayload.Sources = ans.Sources
	job.JobPayload.UsedContext = ans.UsedContext
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(ctx context.Context, job jobModel.Job, err error) jobModel.Job {
	logger_i.FromContext(ctx, "RAG Service").Error("Job failed", "jobId", job.Id, "step", job.CurrentStep, "error", err)

	job.Error = jobModel.JobError{
		Code:    errorModel.HTTPStatus(err),
		Message: errorModel.PublicMessage(err),
		Retry:   errorModel.IsRetryable(err),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

// providerFailure makes sure any embedding or generation error is classified as retryable.
func providerFailure(operation string, err error) error {
	if errors.Is(err, errorModel.ErrProviderFailure) {
		return err
	}
	return errorModel.NewProviderError("provider", operation, err)
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	v, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return nil, providerFailure("embedding", err)
	}
	return v, nil
}

func (s *service) executeVectorSearchStep(ctx context.Context, queryVector []float32) ([]commonModels.Chunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	s.docMu.RLock()
	defer s.docMu.RUnlock()
	return s.index.Search(ctx, queryVector, s.retrieval.TopK)
}

func (s *service) executeLLMStep(ctx context.Context, userPrompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	text, err := s.llmProvider.Complete(ctx, prompt.AnswerSystemPrompt, userPrompt, llm.CompletionOptions{
		Temperature: s.retrieval.AnswerTemperature,
	})
	if err != nil {
		return "", providerFailure("completion", err)
	}
	return text, nil
}
