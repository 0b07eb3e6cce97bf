package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/data/store"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/job"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRag struct {
	onIngest func(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error)
	onAnswer func(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error)
}

func (s *stubRag) IngestDocument(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
	if s.onIngest != nil {
		return s.onIngest(ctx, req)
	}
	return commonModels.IngestResult{DocumentId: req.DocumentId, Status: config.IngestStatusReady}, nil
}

func (s *stubRag) Answer(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error) {
	if s.onAnswer != nil {
		return s.onAnswer(ctx, q, h)
	}
	return commonModels.Answer{Answer: "ok"}, nil
}

func (s *stubRag) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

type stubFetcher struct {
	pages []commonModels.Page
	err   error
}

func (f stubFetcher) Fetch(ctx context.Context, rawURL string) ([]commonModels.Page, error) {
	return f.pages, f.err
}

func newJobService() *job.Service {
	return job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		MessageStore:      store.InitMessageStore(),
	})
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var res api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUploadPDFHandler_Rejections(t *testing.T) {
	InitDocumentHandler(&stubRag{}, stubFetcher{})

	tests := []struct {
		name        string
		contentType string
		content     []byte
		wantMessage string
	}{
		{"wrong content type", "text/plain", []byte("hello"), "Only PDF files are supported."},
		{"not actually a pdf", "application/pdf", []byte("hello"), "Failed to read document."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			UploadPDFHandler(rec, multipartUpload(t, "doc.pdf", tt.contentType, tt.content))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			res := decodeError(t, rec)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.False(t, res.Retry)
		})
	}
}

func TestUploadPDFHandler_MissingFile(t *testing.T) {
	InitDocumentHandler(&stubRag{}, stubFetcher{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	UploadPDFHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDOCXHandler_RequiresDocxName(t *testing.T) {
	InitDocumentHandler(&stubRag{}, stubFetcher{})
	rec := httptest.NewRecorder()

	UploadDOCXHandler(rec, multipartUpload(t, "notes.pdf", "application/octet-stream", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only DOCX files are supported.", decodeError(t, rec).Message)
}

func TestUploadURLHandler(t *testing.T) {
	var got commonModels.IngestRequest
	rag := &stubRag{onIngest: func(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
		got = req
		return commonModels.IngestResult{DocumentId: req.DocumentId, Summary: "sum", EmbeddedChunks: 2, Status: config.IngestStatusReady}, nil
	}}

	t.Run("success", func(t *testing.T) {
		InitDocumentHandler(rag, stubFetcher{pages: []commonModels.Page{{Number: 0, Text: "page text"}}})
		rec := postJSON(t, UploadURLHandler, `{"url":"https://example.com/a"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"document_id":"https://example.com/a","summary":"sum","embedded_chunks":2,"status":"Ready for questions"}`, rec.Body.String())
		assert.Equal(t, "https://example.com/a", got.Source)
		assert.Equal(t, commonModels.URL, got.ContentType)
		assert.Equal(t, 0, got.Pages[0].Number)
	})

	t.Run("missing url", func(t *testing.T) {
		InitDocumentHandler(rag, stubFetcher{})
		rec := postJSON(t, UploadURLHandler, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unreachable page", func(t *testing.T) {
		InitDocumentHandler(rag, stubFetcher{err: errorModel.Unreadable(errors.New("dial tcp"))})
		rec := postJSON(t, UploadURLHandler, `{"url":"https://nowhere.invalid"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, rec.Body.String(), "dial tcp")
	})

	t.Run("empty document", func(t *testing.T) {
		InitDocumentHandler(&stubRag{onIngest: func(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
			return commonModels.IngestResult{}, errorModel.ErrEmptyDocument
		}}, stubFetcher{pages: []commonModels.Page{{Text: " "}}})
		rec := postJSON(t, UploadURLHandler, `{"url":"https://example.com/blank"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errorModel.ErrEmptyDocument.Error(), decodeError(t, rec).Message)
	})
}

func TestAskHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotHistory []commonModels.ConversationTurn
		InitDocumentHandler(&stubRag{onAnswer: func(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error) {
			gotHistory = h
			return commonModels.Answer{
				Answer:      "Paris",
				Sources:     []commonModels.SourceRef{{PageNumber: 1, ChunkId: 2, Source: "facts.pdf"}},
				UsedContext: []string{"Capital city: Paris."},
			}, nil
		}}, stubFetcher{})

		rec := postJSON(t, AskHandler, `{"question":"capital?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"answer":"Paris","sources":[{"page_number":1,"chunk_id":2,"source":"facts.pdf"}],"used_context":["Capital city: Paris."]}`, rec.Body.String())
		require.Len(t, gotHistory, 2)
		assert.Equal(t, commonModels.RoleAssistant, gotHistory[1].Role)
	})

	t.Run("empty answer lists", func(t *testing.T) {
		InitDocumentHandler(&stubRag{}, stubFetcher{})
		rec := postJSON(t, AskHandler, `{"question":"anything"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"answer":"ok","sources":[],"used_context":[]}`, rec.Body.String())
	})

	t.Run("missing question", func(t *testing.T) {
		InitDocumentHandler(&stubRag{}, stubFetcher{})
		rec := postJSON(t, AskHandler, `{"question":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad role", func(t *testing.T) {
		InitDocumentHandler(&stubRag{}, stubFetcher{})
		rec := postJSON(t, AskHandler, `{"question":"q","history":[{"role":"system","content":"x"}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure is retryable", func(t *testing.T) {
		InitDocumentHandler(&stubRag{onAnswer: func(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error) {
			return commonModels.Answer{}, errorModel.NewProviderError("openai", "completion", errors.New("secret upstream detail"))
		}}, stubFetcher{})
		rec := postJSON(t, AskHandler, `{"question":"q"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		res := decodeError(t, rec)
		assert.True(t, res.Retry)
		assert.NotContains(t, res.Message, "secret")
	})

	t.Run("dimension mismatch is internal", func(t *testing.T) {
		InitDocumentHandler(&stubRag{onAnswer: func(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error) {
			return commonModels.Answer{}, errorModel.ErrDimensionMismatch
		}}, stubFetcher{})
		rec := postJSON(t, AskHandler, `{"question":"q"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", decodeError(t, rec).Message)
	})
}

func TestChatHandler(t *testing.T) {
	svc := newJobService()
	InitJobHandler(svc)

	t.Run("new chat is queued", func(t *testing.T) {
		rec := postJSON(t, ChatHandler, `{"message":"what is it about?"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)

		var res api.InitJobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.ChatId)
		assert.Equal(t, "status/"+res.Id, res.StatusURL)
		assert.True(t, svc.ValidateChatId(context.Background(), res.ChatId))

		queued := <-svc.JobChannel
		assert.Equal(t, res.Id, queued.Id)
		assert.Equal(t, "what is it about?", queued.JobPayload.Question)

		stored, ok := svc.GetJob(context.Background(), res.Id)
		require.True(t, ok)
		assert.Equal(t, jobModel.JobStatusQueued, stored.Status)
	})

	t.Run("unknown chat id", func(t *testing.T) {
		rec := postJSON(t, ChatHandler, `{"message":"hi","chat_id":"does-not-exist"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		rec := postJSON(t, ChatHandler, `{"message":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetStatusHandler(t *testing.T) {
	svc := newJobService()
	InitJobHandler(svc)
	require.NoError(t, svc.JobStore.SaveJob(context.Background(), jobModel.Job{
		Id:     "job-7",
		Status: jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{
			Question: "q",
			Answer:   "a",
		},
	}))

	r := chi.NewRouter()
	r.Get("/status/{id}", GetStatusHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/job-7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res api.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "COMPLETE", res.Result.Status)
	require.NotNil(t, res.Result.RAGExternalResponse)
	assert.Equal(t, "a", res.Result.RAGExternalResponse.Answer)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
