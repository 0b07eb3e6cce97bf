package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/ChatDocs/internal/adapter"
	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

var errInvalidRole = errors.New("history role must be user or assistant")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, nothing left but to log
		logger_i.NewLogger("RequestHandler").Error("Error encoding response", "error", err)
	}
}

func traceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logger_i.FromContext(ctx, "RequestHandler").Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

// WriteErrorResponse writes the error envelope. The middleware uses it too.
func WriteErrorResponse(w http.ResponseWriter, ctx context.Context, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(httpCode, message, false, traceId(ctx)))
}

// writeServiceError maps a domain error onto its status code without leaking internal detail.
func writeServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	code := errorModel.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger_i.FromContext(ctx, "RequestHandler").Error("Request failed", "status", code, "error", err)
	} else {
		logger_i.FromContext(ctx, "RequestHandler").Warn("Request rejected", "status", code, "error", err)
	}
	writeJsonResponse(w, code, adapter.ToErrorResponse(code, errorModel.PublicMessage(err), errorModel.IsRetryable(err), traceId(ctx)))
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer func() {
		if err := body.Close(); err != nil {
			logger_i.NewLogger("RequestHandler").Error("Couldn't close the request body", "error", err)
		}
	}()
	return json.NewDecoder(io.LimitReader(body, config.MaxUploadSize)).Decode(dst)
}

func validateHistory(history []commonModels.ConversationTurn) error {
	for _, turn := range history {
		if !turn.Role.Valid() {
			return errInvalidRole
		}
	}
	return nil
}
