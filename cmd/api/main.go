// @title           ChatDocs API
// @version         1.0
// @description     Chat with PDFs, DOCX files and web pages through a retrieval-augmented generation pipeline.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/customHttpClient"
	"github.com/akolanti/ChatDocs/internal/data/store"
	jobmodel "github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/internal/handlers"
	"github.com/akolanti/ChatDocs/internal/job"
	"github.com/akolanti/ChatDocs/internal/mcpserver"
	"github.com/akolanti/ChatDocs/internal/middleware"
	"github.com/akolanti/ChatDocs/internal/rag"
	"github.com/akolanti/ChatDocs/internal/rag/embedding"
	"github.com/akolanti/ChatDocs/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/ChatDocs/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/ChatDocs/internal/rag/ingest"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/internal/rag/llm/gemini"
	"github.com/akolanti/ChatDocs/internal/rag/llm/openaiLLM"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB/flatIndex"
	"github.com/akolanti/ChatDocs/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/ChatDocs/internal/server"
	"github.com/akolanti/ChatDocs/internal/worker"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "optional YAML config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the config")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		settings.Server.ListenAddr = listenAddr
	}

	logger_i.Init(settings.Server.IsProd)
	var logger = logger_i.NewLogger("main")
	middleware.SetRateLimit(settings.Server.RateLimitPerSecond, settings.Server.RateLimitBurst)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	embedder, llmProvider, err := initProviders(serviceContext, settings.Provider)
	if err != nil {
		logger.Error("Model provider failed to initialize. Shutting down.", "provider", settings.Provider.Name, "error", err)
		return
	}

	index, err := initIndex(serviceContext, settings)
	if err != nil {
		logger.Error("Vector index failed to initialize. Shutting down.", "backend", settings.Vector.Backend, "error", err)
		return
	}

	ragService, err := rag.NewService(index, llmProvider, embedder, settings)
	if err != nil {
		logger.Error("RAG service failed to initialize", "error", err)
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	// typed nil pointers must not reach the interfaces
	if jobStore := store.GetRedisJobStore(serviceContext, settings.Redis); jobStore != nil {
		serviceConfig.JobStore = jobStore
	}
	if messageStore := store.GetRedisMessageStore(serviceContext, settings.Redis); messageStore != nil {
		serviceConfig.MessageStore = messageStore
	}
	if serviceConfig.JobStore == nil || serviceConfig.MessageStore == nil {
		logger.Warn("Redis stores are offline, using in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	}
	logger.Info("Starting job service")
	jobService := job.InitJobService(serviceConfig)

	handlers.InitJobHandler(jobService)
	handlers.InitDocumentHandler(ragService, ingest.NewURLFetcher(customHttpClient.NewClientWithTimeout(config.URLFetchTimeout)))

	//init worker pool
	worker.InitServices(jobService, ragService, settings.Retrieval)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.Server.ListenAddr, mcpserver.Handler(mcpserver.NewServer(ragService)))

	<-stopExecution
	logger.Info("Server stopped")
}

func initProviders(ctx context.Context, settings config.ProviderSettings) (embedding.Embedder, llm.Provider, error) {
	switch settings.Name {
	case config.ProviderGemini:
		em, err := googleEmbedding.GetGoogleEmbeddingClient(ctx, settings)
		if err != nil {
			return nil, nil, err
		}
		provider, err := gemini.GetGeminiClient(ctx, settings)
		if err != nil {
			return nil, nil, err
		}
		return em, provider, nil
	default:
		return openaiEmbedding.GetOpenAIEmbeddingClient(settings), openaiLLM.GetOpenAIClient(settings), nil
	}
}

func initIndex(ctx context.Context, settings config.Settings) (vectorDB.Index, error) {
	if settings.Vector.Backend == config.VectorBackendQdrant {
		return qdrantDB.NewQdrantIndex(ctx, settings.Vector, settings.Provider.EmbeddingDim)
	}
	return flatIndex.New(settings.Provider.EmbeddingDim)
}
