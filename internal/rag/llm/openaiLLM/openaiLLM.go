package openaiLLM

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/customHttpClient"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

type llmClient struct {
	client    openai.Client
	modelName string
}

var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(settings config.ProviderSettings) llm.Provider {
	once.Do(func() {
		openaiClient = newLLMClient(settings)
		logger_i.NewLogger("llm_openai").Info("OpenAI client created", "model", settings.AnswerModel)
	})
	return openaiClient
}

func newLLMClient(settings config.ProviderSettings) *llmClient {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
		option.WithRequestTimeout(config.ProviderRequestTimeout),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	return &llmClient{
		client:    openai.NewClient(opts...),
		modelName: settings.AnswerModel,
	}
}

func (c *llmClient) Complete(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	log := logger_i.FromContext(ctx, "llm_openai")

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(c.modelName),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("Chat completion failed", "error", err)
		return "", errorModel.NewProviderError(providerName, "completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errorModel.NewProviderError(providerName, "completion", errors.New("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}
