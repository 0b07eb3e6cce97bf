package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	DefaultConfigPath = "config.yaml"
	EnvPrefix         = "CHATDOCS_"

	//chunking
	ChunkSize    = 900
	ChunkOverlap = 100

	//ingestion
	MaxEmbeddedChunks  = 25 //0 disables the cap
	EmbeddingBatchSize = 100
	IngestStatusReady  = "Ready for questions"

	//retrieval
	EmbeddingOutputDimensionality = 1536
	TopK                          = 5
	HistoryWindow                 = 6
	AnswerTemperature     float64 = 0.3

	//summary
	SummaryChunkCount             = 5
	SummaryTemperature    float64 = 0.3
	SummaryMaxTokens              = 200
	SummaryMaxInputChars          = 12000

	//providers
	ProviderOpenAI         = "openai"
	ProviderGemini         = "gemini"
	OpenAIEmbeddingModel   = "text-embedding-3-small"
	OpenAIAnswerModel      = "gpt-3.5-turbo"
	GeminiModelName        = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel   = "gemini-embedding-001"
	ProviderRequestTimeout = 60 * time.Second

	//vector index
	VectorBackendMemory = "memory"
	VectorBackendQdrant = "qdrant"
	QdrantHost          = "localhost"
	QdrantGrpcPort      = 6334
	QdrantUseTLS        = false
	QdrantPoolSize      = 1
	QdrantCollection    = "chatdocs-active-document"

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 90 * time.Second

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 120 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//uploads
	MaxUploadSize   = 32 << 20 //32mb
	URLFetchTimeout = 20 * time.Second
	MaxURLBodySize  = 10 << 20

	//job requests buffer limit
	BufferLimit = 100

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)
