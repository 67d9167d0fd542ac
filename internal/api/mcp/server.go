package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/log"
)

// Server represents an MCP server
type Server struct {
	logger  *slog.Logger
	handler *Handler
	name    string
	version string
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Name    string
	Version string
}

// NewServer creates a new MCP server
func NewServer(services *service.Services, generator Generator, config ServerConfig) *Server {
	return &Server{
		logger:  log.Logger("mcp"),
		handler: NewHandler(services, generator),
		name:    config.Name,
		version: config.Version,
	}
}

const protocolVersion = "2024-11-05"

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// JSON-RPC types
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents a JSON-RPC error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MCP message types
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// RunStdio runs the MCP server using stdio transport
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("starting stdio server", "name", s.name, "version", s.version)
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, writer io.Writer) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Read JSON-RPC message
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				s.logger.Info("stdin closed")
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		// Parse request
		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			_ = s.writeError(writer, nil, codeParseError, "Parse error", err.Error())
			continue
		}

		// Handle request
		resp := s.handleRequest(ctx, &req)

		// Write response
		if err := s.writeResponse(writer, resp); err != nil {
			s.logger.Error("write error", "error", err)
		}
	}
}

// handleRequest dispatches a JSON-RPC request. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, req *jsonRPCRequest) *jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		s.logger.Info("initialized")
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return s.result(req.ID, map[string]any{})
	default:
		if req.ID == nil {
			s.logger.Debug("ignoring notification", "method", req.Method)
			return nil
		}
		return rpcError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

// handleInitialize handles the initialize request
func (s *Server) handleInitialize(req *jsonRPCRequest) *jsonRPCResponse {
	var params initializeParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.logger.Warn("invalid initialize params", "error", err)
		}
	}

	s.logger.Info("initialize",
		"client", params.ClientInfo.Name,
		"clientVersion", params.ClientInfo.Version,
		"protocol", params.ProtocolVersion,
	)

	result := initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
	}
	result.ServerInfo.Name = s.name
	result.ServerInfo.Version = s.version

	return s.result(req.ID, result)
}

// handleToolsList handles the tools/list request
func (s *Server) handleToolsList(req *jsonRPCRequest) *jsonRPCResponse {
	s.logger.Debug("tools/list")

	return s.result(req.ID, toolsListResult{Tools: CampaignTools})
}

// handleToolsCall handles the tools/call request
func (s *Server) handleToolsCall(ctx context.Context, req *jsonRPCRequest) *jsonRPCResponse {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcError(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	s.logger.Info("tools/call", "tool", params.Name)

	result := s.handler.HandleToolCall(ctx, ToolCallRequest{
		Name:      params.Name,
		Arguments: params.Arguments,
	})
	return s.result(req.ID, result)
}

// writeResponse writes a JSON-RPC response
func (s *Server) writeResponse(w io.Writer, resp *jsonRPCResponse) error {
	if resp == nil {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeError writes a JSON-RPC error response
func (s *Server) writeError(w io.Writer, id any, code int, message, data string) error {
	return s.writeResponse(w, rpcError(id, code, message, data))
}

func (s *Server) result(id any, result any) *jsonRPCResponse {
	return &jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func rpcError(id any, code int, message, data string) *jsonRPCResponse {
	return &jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
