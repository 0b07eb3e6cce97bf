package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/customHttpClient"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/embedding"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const providerName = "gemini"

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var initErr error

// rateLimitBackoff is how long a 429 waits before the single retry.
var rateLimitBackoff = 5 * time.Second

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
}

// GetGoogleEmbeddingClient builds the shared Gemini embedder once. The context only scopes client creation.
func GetGoogleEmbeddingClient(ctx context.Context, settings config.ProviderSettings) (embedding.Embedder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		embeddingClient, initErr = newClient(ctx, settings)
		if initErr != nil {
			logger.Error("Error creating Google Embedding client", "error", initErr)
			return
		}
		logger.Info("Google Embedding client created", "model", settings.EmbeddingModel)
	})
	if embeddingClient == nil {
		return nil, initErr
	}
	return embeddingClient, nil
}

func newClient(ctx context.Context, settings config.ProviderSettings) (*client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      settings.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  customHttpClient.GetPooledClient(),
		HTTPOptions: genai.HTTPOptions{BaseURL: settings.BaseURL},
	})
	if err != nil {
		return nil, errorModel.NewProviderError(providerName, "client init", err)
	}
	return &client{
		genAi:     c,
		model:     settings.EmbeddingModel,
		dimension: int32(settings.EmbeddingDim),
	}, nil
}

func (c *client) Dimension() int {
	return int(c.dimension)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.embed(ctx, []string{query}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return c.embed(ctx, chunks, "RETRIEVAL_DOCUMENT")
}

func (c *client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	log := logger_i.FromContext(ctx, "google_embedding")

	res, err := c.doCall(ctx, getContent(texts), taskType)
	if err != nil && doRetry(err) {
		log.Warn("Rate limit hit, retrying", "backoff", rateLimitBackoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, errorModel.NewProviderError(providerName, "embedding", ctx.Err())
		case <-time.After(rateLimitBackoff):
		}
		res, err = c.doCall(ctx, getContent(texts), taskType)
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, errorModel.NewProviderError(providerName, "embedding", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, errorModel.NewProviderError(providerName, "embedding", fmt.Errorf("unexpected embedding count for %d inputs", len(texts)))
	}

	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil {
			return nil, errorModel.NewProviderError(providerName, "embedding", fmt.Errorf("missing embedding %d", i))
		}
		out[i] = e.Values
	}
	return out, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             taskType,
	})
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr genai.APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}
