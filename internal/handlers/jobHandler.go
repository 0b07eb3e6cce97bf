package handlers

import (
	"net/http"
	"strings"

	"github.com/akolanti/ChatDocs/internal/adapter"
	"github.com/akolanti/ChatDocs/internal/adapter/utils"
	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/job"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

type JobHandler struct {
	service *job.Service
}

var handlerInstance *JobHandler

func InitJobHandler(jobService *job.Service) {
	handlerInstance = &JobHandler{service: jobService}
	logger_i.NewLogger("JobHandler").Info("Starting job handler")
}

// ChatHandler godoc
// @Summary      Queue a question
// @Description  Accepts a message, queues a background answer job and returns a job ID to track status.
// @Description  Without chat_id a new conversation is started; its id comes back in the response.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Message, optional chat id and history"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.ErrorResponse    "Invalid request data or chat ID"
// @Failure      503      {object}  api.ErrorResponse    "Job could not be queued"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	ctx := r.Context()
	log := logger_i.FromContext(ctx, "JobHandler")

	var req api.ChatRequest
	if err := decodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		log.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, ctx, http.StatusBadRequest, "Bad Request")
		return
	}
	if err := validateHistory(req.History); err != nil {
		WriteErrorResponse(w, ctx, http.StatusBadRequest, err.Error())
		return
	}
	if !handlerInstance.service.ValidateChatId(ctx, req.ChatID) {
		log.Warn("Unknown chat id", "chatId", req.ChatID)
		WriteErrorResponse(w, ctx, http.StatusBadRequest, "Invalid chat id")
		return
	}

	chatId := req.ChatID
	if chatId == "" {
		chatId = utils.GetNewUUID()
		log.Debug("New Chat request", "chatId", chatId)
		if err := handlerInstance.service.InitNewChat(ctx, chatId); err != nil {
			WriteErrorResponse(w, ctx, http.StatusServiceUnavailable, "Could not start chat")
			return
		}
	}

	newJob := job.NewQuestionJob(utils.GetNewUUID(), traceId(ctx), chatId, req.Message, req.History)
	if err := handlerInstance.service.Enqueue(ctx, newJob); err != nil {
		WriteErrorResponse(w, ctx, http.StatusServiceUnavailable, "Could not queue job")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id, chatId))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a job; completed jobs carry the answer, sources and used context.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse    "The current status of the job"
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	result, isFound := handlerInstance.service.GetJob(r.Context(), id)
	if !isFound {
		WriteErrorResponse(w, r.Context(), http.StatusNotFound, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}
