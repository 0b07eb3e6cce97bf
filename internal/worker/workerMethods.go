package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	jobmodel "github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()

	log := logger_i.FromContext(ctx, "WorkerPool").With("jobId", job.Id)
	log.Debug("Processing job")

	job.Status = jobmodel.JobStatusRunning
	saveJobState(ctx, job, log)

	job = processQuery(ctx, job, log)
	if job.Status == jobmodel.JobStatusComplete {
		saveConversation(ctx, job, log)
	}

	job.EndTime = time.Now()
	saveJobState(ctx, job, log)
}

func removeWorker(reason string) {
	releaseWorker(reason, atomic.AddInt64(&currentWorkerCount, -1))
}

func releaseWorker(reason string, remaining int64) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", remaining)
	workerWaitGroup.Done()
}

// processQuery prepends the stored conversation to whatever history came with the request.
func processQuery(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) jobmodel.Job {
	if job.ChatId != "" {
		job.CurrentStep = jobmodel.HistoryCall
		stored, err := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId, historyWindow)
		if err != nil {
			log.Error("Failed to get message history", "chatId", job.ChatId, "error", err)
		}
		if len(stored) > 0 {
			merged := make([]commonModels.ConversationTurn, 0, len(stored)+len(job.JobPayload.History))
			merged = append(merged, stored...)
			job.JobPayload.History = append(merged, job.JobPayload.History...)
		}
	}
	return _ragService.ProcessRequest(ctx, job)
}

func saveConversation(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) {
	if job.ChatId == "" {
		return
	}
	err := _jobService.MessageStore.AppendTurns(ctx, job.ChatId,
		commonModels.ConversationTurn{Role: commonModels.RoleUser, Content: job.JobPayload.Question},
		commonModels.ConversationTurn{Role: commonModels.RoleAssistant, Content: job.JobPayload.Answer},
	)
	if err != nil {
		log.Error("Failed to save chat history", "chatId", job.ChatId, "error", err)
	}
}

func saveJobState(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to update job state", "status", job.Status, "error", err)
	}
}
