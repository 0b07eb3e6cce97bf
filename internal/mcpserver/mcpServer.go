package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/ChatDocs/internal/adapter"
	"github.com/akolanti/ChatDocs/internal/api"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const toolName = "ask_document"

type AskInput struct {
	Question string                          `json:"question" jsonschema:"question about the active document"`
	History  []commonModels.ConversationTurn `json:"history,omitempty" jsonschema:"earlier conversation turns, oldest first"`
}

// NewServer exposes question answering over the active document as an MCP tool.
func NewServer(ragService rag.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "chatdocs", Version: "v1.0.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: "Answer a question using the most recently uploaded document. Returns the answer, cited sources and the chunks used.",
	}, askDocument(ragService))
	return server
}

// Handler serves the MCP streamable HTTP transport.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func askDocument(ragService rag.Service) mcp.ToolHandlerFor[AskInput, api.AnswerResponse] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, api.AnswerResponse, error) {
		log := logger_i.FromContext(ctx, "MCP Server")
		if strings.TrimSpace(in.Question) == "" {
			return nil, api.AnswerResponse{}, errors.New("question is required")
		}
		for _, turn := range in.History {
			if !turn.Role.Valid() {
				return nil, api.AnswerResponse{}, errors.New("history role must be user or assistant")
			}
		}

		ans, err := ragService.Answer(ctx, in.Question, in.History)
		if err != nil {
			log.Error("ask_document failed", "error", err)
			return nil, api.AnswerResponse{}, errors.New(errorModel.PublicMessage(err))
		}
		log.Debug("ask_document answered", "sources", len(ans.Sources))
		return nil, adapter.ToAnswerResponse(ans), nil
	}
}
