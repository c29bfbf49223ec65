package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/input"
	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	methodCancelled   = "notifications/cancelled"
	methodInitialized = "notifications/initialized"

	// requestIDField carries the JSON-RPC request ID from the call hook to
	// the tool handler through the request metadata.
	requestIDField = "mcp_browser_use/request_id"
)

// Server registers run_browser_agent on an mcp-go server and tracks in-flight
// calls so a client cancellation reaches the agent run.
type Server struct {
	runner input.RunController
	logger output.LoggerPort
	mcp    *mcpserver.MCPServer

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

func NewServer(runner input.RunController, logger output.LoggerPort, info ServerInfo) *Server {
	if info.Name == "" {
		info.Name = defaultServerName
	}
	s := &Server{
		runner:   runner,
		logger:   logger,
		inflight: make(map[string]context.CancelFunc),
	}

	hooks := &mcpserver.Hooks{}
	hooks.AddBeforeCallTool(tagRequestID)
	hooks.AddOnError(func(_ context.Context, id any, method mcpgo.MCPMethod, _ any, err error) {
		logger.Warn("MCP request failed", "method", string(method), "request_id", requestKey(id), "error", err)
	})

	s.mcp = mcpserver.NewMCPServer(info.Name, info.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithHooks(hooks),
	)
	s.mcp.AddTool(runBrowserAgentTool(), s.runBrowserAgent)
	s.mcp.AddNotificationHandler(methodCancelled, s.onCancelled)
	s.mcp.AddNotificationHandler(methodInitialized, func(context.Context, mcpgo.JSONRPCNotification) {
		logger.Info("MCP client initialized")
	})
	return s
}

// MCP exposes the underlying protocol server for transports.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Running reports whether an agent run is in progress.
func (s *Server) Running() bool {
	return s.runner.Running()
}

// Handle processes one raw JSON-RPC message. It returns nil when no reply is
// due.
func (s *Server) Handle(ctx context.Context, raw []byte) mcpgo.JSONRPCMessage {
	return s.mcp.HandleMessage(ctx, json.RawMessage(raw))
}

func (s *Server) runBrowserAgent(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	hints := req.GetString("add_infos", "")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	key := requestIDFrom(req)
	s.track(key, cancel)
	defer s.untrack(key)

	log := s.logger.WithFields(map[string]any{"tool": ToolName, "request_id": key})
	log.Info("Tool call started")
	result, err := s.runner.StartRun(ctx, task, hints)
	if err != nil {
		log.Warn("Tool call failed", "error", err)
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	log.Info("Tool call finished")
	return mcpgo.NewToolResultText(result), nil
}

func (s *Server) onCancelled(_ context.Context, n mcpgo.JSONRPCNotification) {
	id, ok := n.Params.AdditionalFields["requestId"]
	if !ok {
		s.logger.Warn("Cancel notification without requestId")
		return
	}
	key := requestKey(id)
	if s.cancel(key) {
		reason, _ := n.Params.AdditionalFields["reason"].(string)
		s.logger.Info("Request cancelled by client", "request_id", key, "reason", reason)
	}
}

// CancelAll cancels every in-flight tool call.
func (s *Server) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.inflight {
		cancel()
	}
}

func (s *Server) track(key string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.inflight[key] = cancel
	s.mu.Unlock()
}

func (s *Server) untrack(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func (s *Server) cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.inflight[key]
	if ok {
		cancel()
	}
	return ok
}

func tagRequestID(_ context.Context, id any, req *mcpgo.CallToolRequest) {
	if req.Params.Meta == nil {
		req.Params.Meta = &mcpgo.Meta{}
	}
	if req.Params.Meta.AdditionalFields == nil {
		req.Params.Meta.AdditionalFields = make(map[string]any)
	}
	req.Params.Meta.AdditionalFields[requestIDField] = requestKey(id)
}

func requestIDFrom(req mcpgo.CallToolRequest) string {
	if req.Params.Meta == nil {
		return ""
	}
	key, _ := req.Params.Meta.AdditionalFields[requestIDField].(string)
	return key
}

// requestKey normalises a decoded JSON-RPC ID so the string "1" and the
// number 1 stay distinct.
func requestKey(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return strconv.Quote(v)
	case mcpgo.RequestId:
		return requestKey(v.Value())
	default:
		return fmt.Sprint(v)
	}
}
