// Package toolserver serves declaratively registered tools over the Model
// Context Protocol. Request framing, dispatch and response serialization are
// handled by the MCP Go SDK; this package supplies each tool's handler and
// input schema, and records every call in logs, metrics and the audit log.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	// ErrUnknownTool is returned by Call for a name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrDuplicateTool is returned by Register when a name is taken.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Options configures a Server.
type Options struct {
	// Name and Version are advertised to clients during initialization.
	Name    string
	Version string
	// Transport labels audit entries ("stdio" when empty).
	Transport string
	// Audit, when set, receives one entry per call.
	Audit *AuditStore
}

// Server owns an MCP server and the tools registered on it.
type Server struct {
	logger    *zap.Logger
	server    *sdkmcp.Server
	audit     *AuditStore
	transport string

	mu    sync.RWMutex
	tools map[string]Tool
}

// New creates a Server with no tools.
func New(opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Transport == "" {
		opts.Transport = "stdio"
	}
	return &Server{
		logger: logger,
		server: sdkmcp.NewServer(
			&sdkmcp.Implementation{
				Name:    opts.Name,
				Version: opts.Version,
			},
			nil,
		),
		audit:     opts.Audit,
		transport: opts.Transport,
		tools:     make(map[string]Tool),
	}
}

// Register validates and adds tools. Registration stops at the first error;
// tools before it stay registered.
func (s *Server) Register(tools ...Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := s.tools[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		s.tools[t.Name] = t
		s.server.AddTool(&sdkmcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		}, s.handler(t.Name))

		s.logger.Debug("tool registered",
			zap.String("tool", t.Name),
			zap.Int("params", len(t.Params)),
		)
	}
	return nil
}

// Tools returns the registered tool names in sorted order.
func (s *Server) Tools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run serves the registered tools on transport until the peer disconnects
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	s.logger.Info("tool server running",
		zap.String("transport", s.transport),
		zap.Strings("tools", s.Tools()),
	)
	return s.server.Run(ctx, transport)
}

// Connect starts a single session on transport without blocking.
func (s *Server) Connect(ctx context.Context, transport sdkmcp.Transport) (*sdkmcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// Call invokes a registered tool directly, bypassing the protocol layer.
// It goes through the same argument checks, logging, metrics and audit as
// a protocol call.
func (s *Server) Call(ctx context.Context, name string, args Args) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal arguments: %w", err)
	}
	return s.invoke(ctx, name, raw)
}

func (s *Server) handler(name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		text, err := s.invoke(ctx, name, raw)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(text), nil
	}
}

func (s *Server) invoke(ctx context.Context, name string, raw json.RawMessage) (text string, err error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	callID := uuid.New().String()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = NewToolError("tool %s failed: %v", name, r)
		}
		s.record(ctx, callID, name, raw, start, err)
	}()

	args, err := t.decodeArgs(raw)
	if err != nil {
		return "", err
	}
	return t.Handler(ctx, args)
}

// record logs the call, updates metrics and writes the audit entry.
func (s *Server) record(ctx context.Context, callID, name string, raw json.RawMessage, start time.Time, callErr error) {
	duration := time.Since(start)
	status := "ok"
	if callErr != nil {
		status = "error"
	}

	toolCallsTotal.WithLabelValues(name, status).Inc()
	toolCallDuration.WithLabelValues(name).Observe(duration.Seconds())

	fields := []zap.Field{
		zap.String("tool", name),
		zap.String("call_id", callID),
		zap.Duration("duration", duration),
	}
	if callErr != nil {
		s.logger.Warn("tool call failed", append(fields, zap.Error(callErr))...)
	} else {
		s.logger.Debug("tool call", fields...)
	}

	if s.audit == nil {
		return
	}
	input := "{}"
	if len(raw) > 0 && string(raw) != "null" {
		input = string(raw)
	}
	entry := AuditEntry{
		CallID:     callID,
		Timestamp:  start,
		ToolName:   name,
		InputJSON:  input,
		Transport:  s.transport,
		DurationMs: duration.Milliseconds(),
		Success:    callErr == nil,
	}
	if callErr != nil {
		entry.ErrorMessage = callErr.Error()
	}
	if err := s.audit.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.Error(err))
	}
}

// textResult creates a successful CallToolResult with text content.
func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: text},
		},
	}
}

// errorResult creates an error CallToolResult with text content.
func errorResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
