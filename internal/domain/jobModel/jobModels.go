package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit    InternalStatus = "Init"
	HistoryCall      InternalStatus = "History"
	RAGCall          InternalStatus = "RAG"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	VectorDBCall     InternalStatus = "VectorDB"
	LLMCall          InternalStatus = "LLM"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"
)

// Job is one asynchronous question moving through the worker pool.
type Job struct {
	Id          string         `json:"id"`
	ChatId      string         `json:"chat_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question    string                          `json:"question"`
	History     []commonModels.ConversationTurn `json:"history,omitempty"`
	Answer      string                          `json:"answer,omitempty"`
	Sources     []commonModels.SourceRef        `json:"sources,omitempty"`
	UsedContext []string                        `json:"used_context,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// MessageStore keeps conversations keyed by chat id, oldest turn first.
type MessageStore interface {
	ValidateChatId(ctx context.Context, id string) bool
	InitNewChat(ctx context.Context, id string) error
	AppendTurns(ctx context.Context, id string, turns ...commonModels.ConversationTurn) error
	// GetMessageHistory returns at most limit of the latest turns; limit <= 0 returns all.
	GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error)
}
