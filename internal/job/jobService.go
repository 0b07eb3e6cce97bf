package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		MessageStore:      cfg.MessageStore,
	}
}

// NewQuestionJob builds a queued chat job. An empty chatId starts a new conversation.
func NewQuestionJob(id, traceId, chatId, question string, history []commonModels.ConversationTurn) jobModel.Job {
	return jobModel.Job{
		Id:          id,
		ChatId:      chatId,
		TraceId:     traceId,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.UserQueryInit,
		JobPayload: jobModel.JobPayload{
			Question: question,
			History:  history,
		},
	}
}

// Enqueue stores the job as queued and hands it to the worker pool. The send blocks while the
// buffer is full so a burst of questions cannot overwhelm the providers.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) error {
	log := logger_i.FromContext(ctx, "JobService").With("jobId", j.Id)

	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Failed to save queued job", "error", err)
		return err
	}

	metrics.IncrementJobsInQueue()
	select {
	case s.JobChannel <- j:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		log.Warn("Request cancelled before job was queued", "error", ctx.Err())
		return ctx.Err()
	}
	log.Info("Created new job")

	//a new worker every RequestsPerNewWorkerCount requests, idle workers retire on their own
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 {
		s.signalDispatcher(log, count)
	}
	return nil
}

func (s *Service) signalDispatcher(log *logger_i.Logger, count int64) {
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		log.Debug("Requested new worker", "requestCount", count)
	default:
		// a signal is already pending
	}
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

// ValidateChatId accepts an empty id, which means a new chat.
func (s *Service) ValidateChatId(ctx context.Context, chatId string) bool {
	if chatId == "" {
		return true
	}
	return s.MessageStore.ValidateChatId(ctx, chatId)
}

func (s *Service) InitNewChat(ctx context.Context, chatId string) error {
	if err := s.MessageStore.InitNewChat(ctx, chatId); err != nil {
		logger_i.FromContext(ctx, "JobService").Error("Error initiating new chat", "chatId", chatId, "error", err)
		return err
	}
	return nil
}
