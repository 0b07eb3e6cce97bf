package adapter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
)

func TestToAnswerResponse_EmptyListsSerialiseAsArrays(t *testing.T) {
	body, err := json.Marshal(ToAnswerResponse(commonModels.Answer{Answer: "I don't know."}))
	if err != nil {
		t.Fatal(err)
	}
	s := string(body)
	if !strings.Contains(s, `"sources":[]`) || !strings.Contains(s, `"used_context":[]`) {
		t.Errorf("got %s", s)
	}
}

func TestToAPIResponse(t *testing.T) {
	done := jobModel.Job{
		Id:     "job-1",
		ChatId: "chat-1",
		Status: jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{
			Question:    "q",
			Answer:      "a",
			Sources:     []commonModels.SourceRef{{PageNumber: 2, ChunkId: 3, Source: "doc.pdf"}},
			UsedContext: []string{"ctx"},
		},
	}
	res := ToAPIResponse(done)
	if res.Error != nil {
		t.Errorf("unexpected error %+v", res.Error)
	}
	if res.Result.RAGExternalResponse == nil || res.Result.RAGExternalResponse.Sources[0].ChunkId != 3 {
		t.Fatalf("rag response got %+v", res.Result.RAGExternalResponse)
	}

	failed := jobModel.Job{
		Id:     "job-2",
		Status: jobModel.JobStatusError,
		Error:  jobModel.JobError{Code: 502, Message: "retry", Retry: true},
	}
	res = ToAPIResponse(failed)
	if res.Error == nil || !res.Error.Retry || res.Error.Code != 502 {
		t.Errorf("error got %+v", res.Error)
	}
	if res.Result.RAGExternalResponse != nil {
		t.Error("failed job should carry no answer")
	}
	if res.Result.Status != "Error" {
		t.Errorf("status got %s", res.Result.Status)
	}
}

func TestToInitJobResponse(t *testing.T) {
	res := ToInitJobResponse("abc", "chat")
	if res.StatusURL != "status/abc" || res.ChatId != "chat" {
		t.Errorf("got %+v", res)
	}
}
