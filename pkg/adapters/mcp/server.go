// Package mcp exposes the dialogue engine as a Model Context Protocol
// server, so agent hosts can drive trip intake as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/pkg/domain"
)

// Engine is the facade surface the MCP server drives.
type Engine interface {
	ProcessTurn(ctx context.Context, conversationID, turnToken, message string) (voyago.TurnResult, error)
	Signal(ctx context.Context, conversationID, signal string) (string, error)
	TriggerSearch(ctx context.Context, conversationID string) error
	State(ctx context.Context, conversationID string) (*domain.State, error)
	List(ctx context.Context) ([]string, error)
}

// Server wraps the engine and exposes it over MCP.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("voyago-mcp", strings.TrimSpace(voyago.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, shutting down
// gracefully when the context is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// TurnResponse is the structured result of the process_turn tool.
type TurnResponse struct {
	Response       string `json:"response" jsonschema_description:"The assistant reply for this turn"`
	ExpectedSlot   string `json:"expectedSlot,omitempty" jsonschema_description:"The slot the next message should fill"`
	ReadyForSearch bool   `json:"readyForSearch" jsonschema_description:"True once every required slot is confirmed"`
	Duplicate      bool   `json:"duplicate" jsonschema_description:"True when the turn token was already processed"`
}

func (s *Server) registerTools() {
	turnTool := mcp.NewTool("process_turn",
		mcp.WithDescription("Send one user message to a trip-intake conversation. The turn token makes redelivery idempotent."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("turn_token", mcp.Description("Idempotency token for this delivery (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleProcessTurn))

	signalTool := mcp.NewTool("send_signal",
		mcp.WithDescription("Inject a reserved system signal (SYSTEM_ITINERARY_GENERATED or SYSTEM_ITINERARY_FAILED)."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("signal", mcp.Required(), mcp.Description("Signal name")),
	)
	s.mcpServer.AddTool(signalTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		signal := request.GetString("signal", "")
		reply, err := s.engine.Signal(ctx, id, signal)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("signal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(reply), nil
	})

	searchTool := mcp.NewTool("trigger_search",
		mcp.WithDescription("Start itinerary generation once every required slot is confirmed."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	)
	s.mcpServer.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		if err := s.engine.TriggerSearch(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search trigger failed: %v", err)), nil
		}
		return mcp.NewToolResultText("search triggered"), nil
	})

	stateTool := mcp.NewTool("get_conversation",
		mcp.WithDescription("Read the full state of a conversation: slots, history and phase."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	)
	s.mcpServer.AddTool(stateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		state, err := s.engine.State(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		data, _ := json.Marshal(state)
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleProcessTurn(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
	id, _ := args["conversation_id"].(string)
	message, _ := args["message"].(string)
	token, _ := args["turn_token"].(string)

	if id == "" || message == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id and message are required")
	}
	if token == "" {
		token = uuid.NewString()
	}

	result, err := s.engine.ProcessTurn(ctx, id, token, message)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return TurnResponse{
		Response:       result.Response,
		ExpectedSlot:   string(result.ExpectedSlot),
		ReadyForSearch: result.ReadyForSearch,
		Duplicate:      result.Duplicate,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("voyago://conversations", "Active Conversations",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		data, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "voyago://conversations",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
