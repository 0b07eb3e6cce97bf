package openaiEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func fakeServer(t *testing.T, handler func(req embeddingRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(url string) config.ProviderSettings {
	return config.ProviderSettings{
		Name:           config.ProviderOpenAI,
		APIKey:         "test-key",
		BaseURL:        url + "/",
		EmbeddingModel: config.OpenAIEmbeddingModel,
		EmbeddingDim:   3,
	}
}

func TestBatchEmbedding_OrdersByIndex(t *testing.T) {
	srv := fakeServer(t, func(req embeddingRequest) (int, any) {
		assert.Equal(t, []string{"a", "b"}, req.Input)
		assert.Equal(t, config.OpenAIEmbeddingModel, req.Model)
		assert.Equal(t, 3, req.Dimensions)
		// reversed on purpose
		return http.StatusOK, map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float64{0, 1, 0}},
				{"object": "embedding", "index": 0, "embedding": []float64{1, 0, 0}},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		}
	})

	c := newClient(testSettings(srv.URL))
	res, err := c.BatchEmbedding(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, res)
	assert.Equal(t, 3, c.Dimension())
}

func TestBatchEmbedding_EmptyInputSkipsCall(t *testing.T) {
	called := false
	srv := fakeServer(t, func(req embeddingRequest) (int, any) {
		called = true
		return http.StatusOK, nil
	})

	res, err := newClient(testSettings(srv.URL)).BatchEmbedding(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.False(t, called)
}

func TestBatchEmbedding_CountMismatchIsProviderError(t *testing.T) {
	srv := fakeServer(t, func(req embeddingRequest) (int, any) {
		return http.StatusOK, map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float64{1, 0, 0}},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		}
	})

	_, err := newClient(testSettings(srv.URL)).BatchEmbedding(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, errorModel.ErrProviderFailure)
}

func TestGetEmbedding_BadRequestIsProviderError(t *testing.T) {
	srv := fakeServer(t, func(req embeddingRequest) (int, any) {
		return http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "bad input", "type": "invalid_request_error"},
		}
	})

	_, err := newClient(testSettings(srv.URL)).GetEmbedding(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, errorModel.ErrProviderFailure)
	assert.True(t, errorModel.IsRetryable(err))
}
