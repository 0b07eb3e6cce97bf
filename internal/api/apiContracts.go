package api

import (
	"time"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

// responses---------------------

type IngestResponse struct {
	DocumentId     string `json:"document_id" example:"report.pdf"`
	Summary        string `json:"summary" example:"The report describes..."`
	EmbeddedChunks int    `json:"embedded_chunks" example:"25"`
	Status         string `json:"status" example:"Ready for questions"`
}

type SourceResponse struct {
	PageNumber int    `json:"page_number" example:"3"`
	ChunkId    int    `json:"chunk_id" example:"7"`
	Source     string `json:"source" example:"report.pdf"`
}

type AnswerResponse struct {
	Answer      string           `json:"answer" example:"The capital is Paris."`
	Sources     []SourceResponse `json:"sources"`
	UsedContext []string         `json:"used_context"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is the envelope every failed request gets.
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Only PDF files are supported."`
	Retry   bool   `json:"can_retry" example:"false"`
	TraceId string `json:"trace_id,omitempty"`
}

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"502"`
	Message string `json:"message" example:"Upstream model provider failed, please retry."`
	Retry   bool   `json:"can_retry" example:"true"`
}

type RAGResponse struct {
	Question    string           `json:"question"`
	Answer      string           `json:"answer"`
	Sources     []SourceResponse `json:"sources"`
	UsedContext []string         `json:"used_context"`
}

type Result struct {
	Status              string       `json:"status"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	ChatId    string `json:"chat_id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type UploadURLRequest struct {
	URL string `json:"url" validate:"required" example:"https://example.com/article"`
}

type AskRequest struct {
	Question string                          `json:"question" validate:"required"`
	History  []commonModels.ConversationTurn `json:"history,omitempty"`
}

type ChatRequest struct {
	Message string                          `json:"message" validate:"required"`
	ChatID  string                          `json:"chat_id,omitempty"`
	History []commonModels.ConversationTurn `json:"history,omitempty"`
}
