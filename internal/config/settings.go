package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerSettings struct {
	ListenAddr         string  `yaml:"listen_addr"`
	IsProd             bool    `yaml:"is_prod"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

type ChunkSettings struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type IngestSettings struct {
	MaxEmbeddedChunks    int `yaml:"max_embedded_chunks"`
	EmbeddingBatchSize   int `yaml:"embedding_batch_size"`
	SummaryChunkCount    int `yaml:"summary_chunk_count"`
	SummaryMaxInputChars int `yaml:"summary_max_input_chars"`
	SummaryMaxTokens     int `yaml:"summary_max_tokens"`
}

type RetrievalSettings struct {
	TopK              int     `yaml:"top_k"`
	HistoryWindow     int     `yaml:"history_window"`
	AnswerTemperature float64 `yaml:"answer_temperature"`
}

type ProviderSettings struct {
	Name           string `yaml:"name"`
	APIKey         string `yaml:"-"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	AnswerModel    string `yaml:"answer_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
}

type VectorSettings struct {
	Backend          string `yaml:"backend"`
	QdrantHost       string `yaml:"qdrant_host"`
	QdrantPort       int    `yaml:"qdrant_port"`
	QdrantAPIKey     string `yaml:"-"`
	QdrantCollection string `yaml:"qdrant_collection"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
}

// Settings is the runtime configuration. Zero fields fall back to the constants in this package.
type Settings struct {
	Server    ServerSettings    `yaml:"server"`
	Chunking  ChunkSettings     `yaml:"chunking"`
	Ingest    IngestSettings    `yaml:"ingest"`
	Retrieval RetrievalSettings `yaml:"retrieval"`
	Provider  ProviderSettings  `yaml:"provider"`
	Vector    VectorSettings    `yaml:"vector"`
	Redis     RedisSettings     `yaml:"redis"`
}

func Defaults() Settings {
	return Settings{
		Server: ServerSettings{
			ListenAddr:         ServerListenAddr,
			RateLimitPerSecond: RATE_LIMIT_PER_SECOND,
			RateLimitBurst:     BURST_RATE_LIMIT_PER_SECOND,
		},
		Chunking: ChunkSettings{
			Size:    ChunkSize,
			Overlap: ChunkOverlap,
		},
		Ingest: IngestSettings{
			MaxEmbeddedChunks:    MaxEmbeddedChunks,
			EmbeddingBatchSize:   EmbeddingBatchSize,
			SummaryChunkCount:    SummaryChunkCount,
			SummaryMaxInputChars: SummaryMaxInputChars,
			SummaryMaxTokens:     SummaryMaxTokens,
		},
		Retrieval: RetrievalSettings{
			TopK:              TopK,
			HistoryWindow:     HistoryWindow,
			AnswerTemperature: AnswerTemperature,
		},
		Provider: ProviderSettings{
			Name:           ProviderOpenAI,
			EmbeddingModel: OpenAIEmbeddingModel,
			AnswerModel:    OpenAIAnswerModel,
			EmbeddingDim:   EmbeddingOutputDimensionality,
		},
		Vector: VectorSettings{
			Backend:          VectorBackendMemory,
			QdrantHost:       QdrantHost,
			QdrantPort:       QdrantGrpcPort,
			QdrantCollection: QdrantCollection,
		},
		Redis: RedisSettings{Addr: RedisAddr},
	}
}

// Load reads .env, then the optional YAML file at path, then environment overrides.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	_ = godotenv.Load()

	s := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&s); err != nil {
		return s, err
	}
	applyProviderDefaults(&s)
	return s, s.Validate()
}

// applyEnv returns every malformed numeric variable it saw, joined.
func applyEnv(s *Settings) error {
	setString(&s.Server.ListenAddr, EnvPrefix+"LISTEN_ADDR")
	if v, ok := os.LookupEnv(EnvPrefix + "ENV"); ok {
		s.Server.IsProd = strings.EqualFold(v, "prod") || strings.EqualFold(v, "production")
	}
	errs := []error{
		setInt(&s.Server.RateLimitBurst, EnvPrefix+"RATE_LIMIT_BURST"),
		setInt(&s.Chunking.Size, EnvPrefix+"CHUNK_SIZE"),
		setInt(&s.Chunking.Overlap, EnvPrefix+"CHUNK_OVERLAP"),
		setInt(&s.Ingest.MaxEmbeddedChunks, EnvPrefix+"MAX_EMBEDDED_CHUNKS"),
		setInt(&s.Retrieval.TopK, EnvPrefix+"TOP_K"),
		setInt(&s.Vector.QdrantPort, "QDRANT_PORT"),
	}

	setString(&s.Provider.Name, EnvPrefix+"PROVIDER")
	setString(&s.Provider.EmbeddingModel, EnvPrefix+"EMBEDDING_MODEL")
	setString(&s.Provider.AnswerModel, EnvPrefix+"ANSWER_MODEL")
	setString(&s.Provider.BaseURL, "OPENAI_BASE_URL")
	switch s.Provider.Name {
	case ProviderGemini:
		setString(&s.Provider.APIKey, "GOOGLE_API_KEY")
	default:
		setString(&s.Provider.APIKey, "OPENAI_API_KEY")
	}

	setString(&s.Vector.Backend, EnvPrefix+"VECTOR_BACKEND")
	setString(&s.Vector.QdrantHost, "QDRANT_HOST")
	setString(&s.Vector.QdrantAPIKey, "QDRANT_API_KEY")

	setString(&s.Redis.Addr, "REDIS_ADDR")
	setString(&s.Redis.Password, "REDIS_PASSWORD")
	return errors.Join(errs...)
}

// gemini defaults only apply when the openai model names were never touched
func applyProviderDefaults(s *Settings) {
	if s.Provider.Name != ProviderGemini {
		return
	}
	if s.Provider.EmbeddingModel == OpenAIEmbeddingModel {
		s.Provider.EmbeddingModel = GoogleEmbeddingModel
	}
	if s.Provider.AnswerModel == OpenAIAnswerModel {
		s.Provider.AnswerModel = GeminiModelName
	}
}

func (s Settings) Validate() error {
	if s.Server.RateLimitPerSecond <= 0 || s.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("server rate limits must be positive")
	}
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("chunking.overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", s.Chunking.Overlap, s.Chunking.Size)
	}
	if s.Ingest.MaxEmbeddedChunks < 0 {
		return fmt.Errorf("ingest.max_embedded_chunks must not be negative")
	}
	if s.Ingest.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("ingest.embedding_batch_size must be positive")
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if s.Retrieval.HistoryWindow < 0 {
		return fmt.Errorf("retrieval.history_window must not be negative")
	}
	if s.Provider.EmbeddingDim <= 0 {
		return fmt.Errorf("provider.embedding_dim must be positive")
	}
	switch s.Provider.Name {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", s.Provider.Name)
	}
	switch s.Vector.Backend {
	case VectorBackendMemory, VectorBackendQdrant:
	default:
		return fmt.Errorf("unknown vector backend %q", s.Vector.Backend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	*dst = n
	return nil
}
