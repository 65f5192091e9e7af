package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/emberly"
	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TransitionsURI is the resource listing the transition table.
const TransitionsURI = "emberly://transitions"

// DefaultSubmitTimeout bounds how long the submit tool waits for a reply.
const DefaultSubmitTimeout = 60 * time.Second

// StateResponse is returned by every tool.
type StateResponse struct {
	State       domain.State `json:"state" jsonschema_description:"Current conversation state"`
	Draft       string       `json:"draft,omitempty" jsonschema_description:"Current input draft"`
	Response    string       `json:"response,omitempty" jsonschema_description:"Last assistant response"`
	Error       string       `json:"error,omitempty" jsonschema_description:"User-safe error message"`
	InFlight    bool         `json:"in_flight" jsonschema_description:"Whether a request is pending"`
	Accepted    *bool        `json:"accepted,omitempty" jsonschema_description:"Whether the dispatched event was accepted"`
	ValidEvents []string     `json:"valid_events" jsonschema_description:"Events legal in the current state"`
}

// Engine is the conversation surface the MCP server drives.
type Engine interface {
	Dispatch(ev domain.Event) (domain.TransitionResult, bool)
	SetDraft(text string)
	Snapshot() conversation.Snapshot
	Submit(ctx context.Context, text string) (conversation.Snapshot, error)
}

var _ Engine = (*emberly.Engine)(nil)

// Server exposes one conversation as MCP tools.
type Server struct {
	engine        Engine
	mcpServer     *server.MCPServer
	logger        *slog.Logger
	submitTimeout time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSubmitTimeout overrides DefaultSubmitTimeout.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.submitTimeout = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:        engine,
		mcpServer:     server.NewMCPServer("emberly-mcp", strings.TrimSpace(emberly.Version)),
		logger:        logging.NewNop(),
		submitTimeout: DefaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	names := make([]string, len(domain.UserEvents))
	for i, ev := range domain.UserEvents {
		names[i] = string(ev)
	}

	dispatchTool := mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch a conversation event. Illegal events are rejected without effect."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name: "+strings.Join(names, ", "))),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	draftTool := mcp.NewTool("set_draft",
		mcp.WithDescription("Replace the input draft without submitting it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Draft text")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(draftTool, mcp.NewStructuredToolHandler(s.handleSetDraft))

	submitTool := mcp.NewTool("submit",
		mcp.WithDescription("Submit a message from the listening state and wait for the reply."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Get the current conversation state."),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleGetState))
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	name, _ := args["event"].(string)
	ev, err := domain.ParseEvent(name)
	if err != nil {
		return StateResponse{}, err
	}
	if ev.Synthesized() {
		s.logger.Warn("MCP dispatch: reserved event refused", "event", string(ev))
		return StateResponse{}, fmt.Errorf("%w: %s", domain.ErrReservedEvent, ev)
	}
	_, ok := s.engine.Dispatch(ev)
	resp := toResponse(s.engine.Snapshot())
	resp.Accepted = &ok
	return resp, nil
}

func (s *Server) handleSetDraft(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	text, _ := args["text"].(string)
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("MCP set_draft: input rejected", "error", err, "size", len(text))
		return StateResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	s.engine.SetDraft(clean)
	return toResponse(s.engine.Snapshot()), nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	text, _ := args["text"].(string)
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("MCP submit: input rejected", "error", err, "size", len(text))
		return StateResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	snap, err := s.engine.Submit(ctx, clean)
	if err != nil {
		return StateResponse{}, fmt.Errorf("submit failed: %w", err)
	}
	return toResponse(snap), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	return toResponse(s.engine.Snapshot()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TransitionsURI, "Conversation Transition Table",
		mcp.WithMIMEType("application/json"),
	), s.readTransitions)
}

func (s *Server) readTransitions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(domain.Rules())
	if err != nil {
		return nil, fmt.Errorf("failed to encode transitions: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TransitionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func toResponse(snap conversation.Snapshot) StateResponse {
	valid := domain.ValidEvents(snap.State)
	names := make([]string, len(valid))
	for i, ev := range valid {
		names[i] = string(ev)
	}
	return StateResponse{
		State:       snap.State,
		Draft:       snap.Draft,
		Response:    snap.Response,
		Error:       snap.Error,
		InFlight:    snap.InFlight,
		ValidEvents: names,
	}
}
