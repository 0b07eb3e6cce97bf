package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/ChatDocs/internal/handlers"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var HealthHandler = Wrap(handlers.HealthHandler)

var UploadPDFHandler = Wrap(handlers.UploadPDFHandler)
var UploadDOCXHandler = Wrap(handlers.UploadDOCXHandler)
var UploadURLHandler = Wrap(handlers.UploadURLHandler)
var AskHandler = Wrap(handlers.AskHandler)

var ChatHandler = Wrap(handlers.ChatHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)

// Wrap runs trace injection and rate limiting before next, then records the request.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc()
	}
}

// routeLabel prefers the chi pattern so /status/{id} stays one series.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Info("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	return rateLimiter(re)
}
