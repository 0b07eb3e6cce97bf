package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/akolanti/ChatDocs/internal/adapter"
	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/rag"
	"github.com/akolanti/ChatDocs/internal/rag/ingest"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

// PageFetcher turns a URL into extracted pages.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]commonModels.Page, error)
}

type documentHandler struct {
	ragService rag.Service
	fetcher    PageFetcher
}

var documentInstance *documentHandler

func InitDocumentHandler(ragService rag.Service, fetcher PageFetcher) {
	documentInstance = &documentHandler{ragService: ragService, fetcher: fetcher}
	logger_i.NewLogger("RequestHandler").Info("Starting document handler")
}

// HealthHandler godoc
// @Summary      Liveness check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// UploadPDFHandler godoc
// @Summary      Upload a PDF
// @Description  Replaces the active document with the uploaded PDF, chunked per page, and returns its summary.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF file (Content-Type application/pdf)"
// @Success      200  {object}  api.IngestResponse
// @Failure      400  {object}  api.ErrorResponse  "Not a PDF, unreadable, or no text"
// @Failure      502  {object}  api.ErrorResponse  "Model provider failed, retry"
// @Router       /upload [post]
func UploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	data, header, ok := readUpload(w, r)
	if !ok {
		return
	}
	if header.Header.Get("Content-Type") != "application/pdf" {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "Only PDF files are supported.")
		return
	}

	pages, err := ingest.ExtractPDF(data)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	documentInstance.ingest(w, r, header.Filename, header.Filename, commonModels.PDF, pages)
}

// UploadDOCXHandler godoc
// @Summary      Upload a DOCX
// @Description  Replaces the active document with the uploaded Word document. Chunks carry page_number 0.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "DOCX file"
// @Success      200  {object}  api.IngestResponse
// @Failure      400  {object}  api.ErrorResponse  "Not a .docx, unreadable, or no text"
// @Failure      502  {object}  api.ErrorResponse  "Model provider failed, retry"
// @Router       /upload/docx [post]
func UploadDOCXHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	data, header, ok := readUpload(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".docx") {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "Only DOCX files are supported.")
		return
	}

	pages, err := ingest.ExtractDOCX(data)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	documentInstance.ingest(w, r, header.Filename, header.Filename, commonModels.DOCX, pages)
}

// UploadURLHandler godoc
// @Summary      Ingest a web page
// @Description  Fetches the URL, strips markup and replaces the active document with its text.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.UploadURLRequest  true  "Page URL"
// @Success      200      {object}  api.IngestResponse
// @Failure      400      {object}  api.ErrorResponse  "Bad URL, unreachable page, or no text"
// @Failure      502      {object}  api.ErrorResponse  "Model provider failed, retry"
// @Router       /upload/url [post]
func UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.UploadURLRequest
	if err := decodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "url is required")
		return
	}

	pages, err := documentInstance.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	documentInstance.ingest(w, r, req.URL, req.URL, commonModels.URL, pages)
}

// AskHandler godoc
// @Summary      Ask about the active document
// @Description  Answers from the most similar chunks of the active document, using the latest turns of history.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question and optional history"
// @Success      200      {object}  api.AnswerResponse
// @Failure      400      {object}  api.ErrorResponse  "Missing question or bad history"
// @Failure      502      {object}  api.ErrorResponse  "Model provider failed, retry"
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AskRequest
	if err := decodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.Question) == "" {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "question is required")
		return
	}
	if err := validateHistory(req.History); err != nil {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, err.Error())
		return
	}

	ans, err := documentInstance.ragService.Answer(r.Context(), req.Question, req.History)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(ans))
}

func (h *documentHandler) ingest(w http.ResponseWriter, r *http.Request, documentId, source string, docType commonModels.DocType, pages []commonModels.Page) {
	logger_i.FromContext(r.Context(), "RequestHandler").Info("Ingesting document", "documentId", documentId, "type", docType, "pages", len(pages))

	res, err := h.ragService.IngestDocument(r.Context(), commonModels.IngestRequest{
		DocumentId:  documentId,
		Source:      source,
		ContentType: docType,
		Pages:       pages,
	})
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToIngestResponse(res))
}

// readUpload pulls the multipart "file" field fully into memory, capped at MaxUploadSize.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "File too large or bad request")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "Could not retrieve file")
		return nil, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, "Could not read file")
		return nil, nil, false
	}
	return data, header, true
}
