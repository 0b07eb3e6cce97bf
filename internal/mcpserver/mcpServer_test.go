package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRag struct {
	answer commonModels.Answer
	err    error
	gotQ   string
}

func (s *stubRag) IngestDocument(ctx context.Context, req commonModels.IngestRequest) (commonModels.IngestResult, error) {
	return commonModels.IngestResult{}, nil
}

func (s *stubRag) Answer(ctx context.Context, q string, h []commonModels.ConversationTurn) (commonModels.Answer, error) {
	s.gotQ = q
	return s.answer, s.err
}

func (s *stubRag) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func connect(t *testing.T, ragService *stubRag) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := NewServer(ragService).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestAskDocumentTool(t *testing.T) {
	ragService := &stubRag{answer: commonModels.Answer{
		Answer:      "Paris",
		Sources:     []commonModels.SourceRef{{PageNumber: 1, ChunkId: 2, Source: "facts.pdf"}},
		UsedContext: []string{"Capital city: Paris."},
	}}
	cs := connect(t, ragService)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      toolName,
		Arguments: map[string]any{"question": "What is the capital?"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "What is the capital?", ragService.gotQ)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out api.AnswerResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Paris", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, 2, out.Sources[0].ChunkId)
	assert.Equal(t, []string{"Capital city: Paris."}, out.UsedContext)
}

func TestAskDocumentTool_ProviderFailure(t *testing.T) {
	cs := connect(t, &stubRag{err: errorModel.NewProviderError("openai", "completion", errors.New("upstream secret"))})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      toolName,
		Arguments: map[string]any{"question": "anything"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	raw, err := json.Marshal(res.Content)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "upstream secret")
}

func TestToolIsListed(t *testing.T) {
	cs := connect(t, &stubRag{})

	tools, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, toolName, tools.Tools[0].Name)
}
