package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/imaging"
	"github.com/ironsheep/image-craft/internal/render"
	"github.com/ironsheep/image-craft/internal/variant"
)

const (
	jsonrpcVersion  = "2.0"
	protocolVersion = "2024-11-05"

	// maxRequestSize bounds one request line.
	maxRequestSize = 1024 * 1024
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailure    = -32000
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	render  *render.Cache
	rules   variant.Rules
	version string
	log     *slog.Logger
}

// Options configure a Server.
type Options struct {
	// Version is reported in serverInfo.
	Version string

	// Logger receives diagnostics. It must not write to stdout.
	Logger *slog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server for cfg.
func New(cfg *config.Config, opts Options) (*Server, error) {
	r, err := render.New(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		cache:   imaging.NewImageCache(imaging.NewCodec(cfg.Quality), imaging.DefaultCacheSize),
		render:  render.NewCache(r, render.DefaultCacheSize),
		rules:   cfg.Rules(),
		version: opts.Version,
		log:     opts.Logger,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve answers newline-delimited requests from in until EOF. A line that
// is not JSON gets a parse error with a null id.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", "error", err)
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(&req)
		}
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

// handleRequest routes a request to its method. Notifications never get a
// response, not even for an unknown method.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.Debug("request", "method", req.Method, "id", req.ID)

	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}
	handler, ok := methods[req.Method]
	if !ok {
		if req.ID == nil {
			return nil
		}
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
	return handler(s, req)
}

var methods = map[string]func(*Server, *MCPRequest) *MCPResponse{
	"initialize": (*Server).handleInitialize,
	"tools/list": (*Server).handleToolsList,
	"tools/call": (*Server).handleToolsCall,
	"ping": func(s *Server, req *MCPRequest) *MCPResponse {
		return s.resultResponse(req.ID, struct{}{})
	},
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      serverInfo         `json:"serverInfo"`
}

type serverCapabilities struct {
	Tools struct{} `json:"tools"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return s.resultResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      serverInfo{Name: "image-craft", Version: s.version},
	})
}

func (s *Server) resultResponse(id interface{}, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}
