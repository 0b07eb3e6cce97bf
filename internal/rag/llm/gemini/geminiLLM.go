package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/customHttpClient"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"google.golang.org/genai"
)

const providerName = "gemini"

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var initErr error
var once sync.Once

func GetGeminiClient(ctx context.Context, settings config.ProviderSettings) (llm.Provider, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		geminiClient, initErr = newClient(ctx, settings)
		if initErr != nil {
			logger.Error("Error creating Gemini client", "error", initErr)
			return
		}
		logger.Info("Gemini client created", "model", settings.AnswerModel)
	})

	if geminiClient == nil {
		return nil, initErr
	}
	return geminiClient, nil
}

func newClient(ctx context.Context, settings config.ProviderSettings) (*llmClient, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      settings.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  customHttpClient.GetPooledClient(),
		HTTPOptions: genai.HTTPOptions{BaseURL: settings.BaseURL},
	})
	if err != nil {
		return nil, errorModel.NewProviderError(providerName, "client init", err)
	}
	return &llmClient{client: c, modelName: settings.AnswerModel}, nil
}

func (c *llmClient) Complete(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	log := logger_i.FromContext(ctx, "llm_gemini")

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		contentConfig.MaxOutputTokens = int32(opts.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(user), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", errorModel.NewProviderError(providerName, "completion", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", errorModel.NewProviderError(providerName, "completion", errors.New("no candidates returned"))
	}
	return result.Text(), nil
}
