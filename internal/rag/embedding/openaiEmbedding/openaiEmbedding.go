package openaiEmbedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/customHttpClient"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/embedding"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

var once sync.Once
var embeddingClient *client

type client struct {
	api       openai.Client
	model     string
	dimension int
}

// GetOpenAIEmbeddingClient returns the process-wide embedder built from the first settings it sees.
func GetOpenAIEmbeddingClient(settings config.ProviderSettings) embedding.Embedder {
	once.Do(func() {
		embeddingClient = newClient(settings)
		logger_i.NewLogger("openai_embedding").Info("OpenAI embedding client created", "model", settings.EmbeddingModel)
	})
	return embeddingClient
}

func newClient(settings config.ProviderSettings) *client {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
		option.WithRequestTimeout(config.ProviderRequestTimeout),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	return &client{
		api:       openai.NewClient(opts...),
		model:     settings.EmbeddingModel,
		dimension: settings.EmbeddingDim,
	}
}

func (c *client) Dimension() int {
	return c.dimension
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := c.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	log := logger_i.FromContext(ctx, "openai_embedding")

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	}
	// only the text-embedding-3 family accepts a requested dimension
	if strings.HasPrefix(c.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err, "count", len(texts))
		return nil, errorModel.NewProviderError(providerName, "embedding", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errorModel.NewProviderError(providerName, "embedding",
			fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	results := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, errorModel.NewProviderError(providerName, "embedding", fmt.Errorf("embedding index %d out of range", d.Index))
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		results[d.Index] = vec
	}
	log.Debug("Embedded texts", "count", len(texts))
	return results, nil
}
