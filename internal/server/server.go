package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/ChatDocs/internal/adapter/utils"
	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/middleware"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var server *http.Server

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// RegisterRoutes mounts the API on r. A nil mcpHandler leaves /mcp unmounted.
func RegisterRoutes(r chi.Router, mcpHandler http.Handler) {
	r.Get("/health", middleware.HealthHandler)

	r.Post("/upload", middleware.UploadPDFHandler)
	r.Post("/upload/docx", middleware.UploadDOCXHandler)
	r.Post("/upload/url", middleware.UploadURLHandler)
	r.Post("/ask", middleware.AskHandler)

	r.Post("/chat", middleware.ChatHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)

	if mcpHandler != nil {
		r.Handle("/mcp", middleware.Wrap(mcpHandler.ServeHTTP))
	}
}

func CreateServer(listenAddr string, mcpHandler http.Handler) {
	_logger := logger_i.NewLogger("Server")

	r := utils.GetRouter()
	RegisterRoutes(r.Router, mcpHandler)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger := logger_i.NewLogger("Server")
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Warn("Force shut down")
	}
	close(shutdownParams.StopExecution)
}
