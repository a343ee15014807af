package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/samiralibabic/rexterm/internal/audit"
	"github.com/samiralibabic/rexterm/internal/metrics"
	"github.com/samiralibabic/rexterm/internal/protocol"
	"github.com/samiralibabic/rexterm/internal/tools"
)

const (
	ServerName    = "rexterm"
	ServerVersion = "0.1.0"
)

var errMissingParams = errors.New("missing params")

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service routes MCP methods onto the tool registry.
type Service struct {
	tools       *tools.Registry
	logger      *zap.Logger
	audit       *audit.Logger
	metrics     *metrics.Metrics
	initialized atomic.Bool
}

func NewService(registry *tools.Registry, opts ...Option) *Service {
	s := &Service{
		tools:  registry,
		logger: zap.NewNop(),
		audit:  audit.New(false, "", audit.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialized reports whether the client has sent the initialized
// notification. Nothing is refused before it arrives.
func (s *Service) Initialized() bool {
	return s.initialized.Load()
}

// Handle processes one message. The bool is false when nothing may be
// written back, which is the case for every notification.
func (s *Service) Handle(ctx context.Context, req protocol.Request) (protocol.Response, bool) {
	resp := s.dispatch(ctx, req)

	if req.IsNotification() {
		if resp.Error != nil {
			s.logger.Debug("dropped notification error",
				zap.String("method", req.Method), zap.String("error", resp.Error.Message))
		}
		s.observe(req.Method, metrics.OutcomeNotice)
		return protocol.Response{}, false
	}
	if resp.Error != nil {
		s.observe(req.Method, metrics.OutcomeError)
	} else {
		s.observe(req.Method, metrics.OutcomeOK)
	}
	return resp, true
}

func (s *Service) dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	id := req.ID
	if req.JSONRPC != protocol.Version {
		return protocol.ErrorResponse(id, protocol.ErrInvalidRequest, `Invalid Request: jsonrpc must be "2.0"`, nil)
	}
	var (
		out any
		err error
	)
	switch req.Method {
	case protocol.MethodInitialize:
		out, err = s.initialize(req.Params)
	case protocol.MethodInitialized, protocol.MethodInitializedNotification:
		s.initialized.Store(true)
		s.logger.Info("client initialized")
		out = struct{}{}
	case protocol.MethodPing:
		out = struct{}{}
	case protocol.MethodToolsList:
		out = protocol.ToolsListResult{Tools: s.tools.Definitions()}
	case protocol.MethodToolsCall:
		out, err = s.toolsCall(ctx, req.Params)
	case protocol.MethodCancelled:
		s.logger.Debug("cancellation ignored", zap.ByteString("params", req.Params))
		out = struct{}{}
	default:
		return protocol.ErrorResponse(id, protocol.ErrMethodNotFound, "Method not found: "+req.Method, nil)
	}
	if err != nil {
		return s.errResp(id, err)
	}
	return protocol.ResultResponse(id, out)
}

func (s *Service) errResp(id json.RawMessage, err error) protocol.Response {
	var (
		rpcErr  *protocol.RPCError
		argsErr *tools.ArgsError
	)
	switch {
	case errors.As(err, &rpcErr):
		return protocol.ErrorResponse(id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	case errors.As(err, &argsErr), errors.Is(err, errMissingParams):
		return protocol.ErrorResponse(id, protocol.ErrInvalidParams, "Invalid params: "+err.Error(), nil)
	default:
		s.logger.Error("internal error", zap.Error(err))
		return protocol.ErrorResponse(id, protocol.ErrInternal, "Internal error: "+err.Error(), nil)
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, errMissingParams
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &v); err != nil {
		return v, invalidParams(err.Error())
	}
	return v, nil
}

func invalidParams(msg string) *protocol.RPCError {
	return &protocol.RPCError{Code: protocol.ErrInvalidParams, Message: "Invalid params: " + msg}
}

func (s *Service) initialize(raw json.RawMessage) (any, error) {
	p, err := decode[protocol.InitializeParams](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case p.ProtocolVersion == "":
		return nil, invalidParams("protocolVersion is required")
	case !isObject(p.Capabilities):
		return nil, invalidParams("capabilities must be an object")
	case p.ClientInfo == nil || p.ClientInfo.Name == "":
		return nil, invalidParams("clientInfo.name is required")
	}
	s.logger.Info("initialize",
		zap.String("client", p.ClientInfo.Name),
		zap.String("client_version", p.ClientInfo.Version),
		zap.String("protocol_version", p.ProtocolVersion))
	return protocol.InitializeResult{
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    protocol.ServerCapabilities{Tools: protocol.ToolsCapability{ListChanged: false}},
		ServerInfo:      protocol.ServerInfo{Name: ServerName, Version: ServerVersion},
	}, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (s *Service) toolsCall(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[protocol.CallToolParams](raw)
	if err != nil {
		return nil, err
	}
	callID := audit.NewCallID()
	start := time.Now()

	res, err := s.tools.Call(p.Name, p.Arguments)
	elapsed := time.Since(start)

	entry := audit.Entry{
		CallID:     callID,
		Method:     protocol.MethodToolsCall,
		Tool:       p.Name,
		Params:     p.Arguments,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		entry.IsError, entry.Error = true, err.Error()
		s.audit.Write(entry)
		return nil, &protocol.RPCError{Code: protocol.ErrInvalidParams, Message: fmt.Sprintf("Unknown tool: %s", p.Name)}
	case err != nil:
		entry.IsError, entry.Error = true, err.Error()
		s.audit.Write(entry)
		return nil, err
	}

	entry.IsError = res.IsError
	s.audit.Write(entry)
	if s.metrics != nil {
		s.metrics.ObserveToolCall(p.Name, res.IsError, elapsed)
	}
	s.logger.Debug("tool call",
		zap.String("call_id", callID),
		zap.String("tool", p.Name),
		zap.Bool("is_error", res.IsError),
		zap.Duration("elapsed", elapsed))
	if ctx.Err() != nil {
		s.logger.Warn("tool call finished after shutdown began", zap.String("tool", p.Name))
	}
	return res, nil
}

// knownMethods bounds the method label. Anything else is counted as
// unknownMethod.
var knownMethods = map[string]bool{
	protocol.MethodInitialize:              true,
	protocol.MethodInitialized:             true,
	protocol.MethodInitializedNotification: true,
	protocol.MethodPing:                    true,
	protocol.MethodToolsList:               true,
	protocol.MethodToolsCall:               true,
	protocol.MethodCancelled:               true,
}

const unknownMethod = "unknown"

func (s *Service) observe(method, outcome string) {
	if s.metrics == nil {
		return
	}
	if method != "" && !knownMethods[method] {
		method = unknownMethod
	}
	s.metrics.ObserveRequest(method, outcome)
}
