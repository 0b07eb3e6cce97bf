package adapter

import (
	"fmt"

	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
)

func ToInitJobResponse(id, chatId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		ChatId:    chatId,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToIngestResponse(res commonModels.IngestResult) api.IngestResponse {
	return api.IngestResponse{
		DocumentId:     res.DocumentId,
		Summary:        res.Summary,
		EmbeddedChunks: res.EmbeddedChunks,
		Status:         res.Status,
	}
}

// ToAnswerResponse always returns lists, never null, for sources and used_context.
func ToAnswerResponse(ans commonModels.Answer) api.AnswerResponse {
	return api.AnswerResponse{
		Answer:      ans.Answer,
		Sources:     toSources(ans.Sources),
		UsedContext: nonNil(ans.UsedContext),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status:              string(job.Status),
			RAGExternalResponse: ToRAGExternalStatus(job),
		},
	}
}

func ToRAGExternalStatus(job jobModel.Job) *api.RAGResponse {
	if job.Status != jobModel.JobStatusComplete {
		return nil
	}
	return &api.RAGResponse{
		Question:    job.JobPayload.Question,
		Answer:      job.JobPayload.Answer,
		Sources:     toSources(job.JobPayload.Sources),
		UsedContext: nonNil(job.JobPayload.UsedContext),
	}
}

func ToErrorResponse(code int, message string, retry bool, traceId string) api.ErrorResponse {
	return api.ErrorResponse{Code: code, Message: message, Retry: retry, TraceId: traceId}
}

func toSources(refs []commonModels.SourceRef) []api.SourceResponse {
	out := make([]api.SourceResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, api.SourceResponse{PageNumber: r.PageNumber, ChunkId: r.ChunkId, Source: r.Source})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
