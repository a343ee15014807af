// Package tools exposes the terminal engine as a fixed set of named tools
// with JSON argument schemas.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/samiralibabic/rexterm/internal/protocol"
)

var ErrUnknownTool = errors.New("unknown tool")

// ArgsError reports tool arguments that do not fit the tool's schema. The
// tool has not run when it is returned.
type ArgsError struct {
	Tool string
	Err  error
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgsError) Unwrap() error {
	return e.Err
}

// Engine is the terminal surface the tools drive.
type Engine interface {
	WriteString(s string) (int, error)
	SendKey(name string) error
	Content() string
	ContentRange(start, end int) string
	Snapshot() (shot string, row, col int)
	Size() (int, int)
	Clear() error
}

type handler func(r *Registry, args json.RawMessage) (protocol.CallToolResult, error)

type tool struct {
	def    protocol.ToolDefinition
	handle handler
}

type Option func(*Registry)

// WithWriteObserver registers fn to be told how many bytes each tool wrote
// to the terminal.
func WithWriteObserver(fn func(bytes int)) Option {
	return func(r *Registry) {
		r.onWrite = fn
	}
}

// Registry serializes tool calls onto one engine.
type Registry struct {
	mu      sync.Mutex
	engine  Engine
	tools   map[string]tool
	order   []string
	onWrite func(int)
}

func NewRegistry(engine Engine, opts ...Option) *Registry {
	r := &Registry{
		engine: engine,
		tools:  make(map[string]tool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.register(typeDefinition(), handleType)
	r.register(sendKeyDefinition(), handleSendKey)
	r.register(getContentDefinition(), handleGetContent)
	r.register(takeScreenshotDefinition(), handleTakeScreenshot)
	r.register(clearDefinition(), handleClear)
	return r
}

func (r *Registry) register(def protocol.ToolDefinition, h handler) {
	r.tools[def.Name] = tool{def: def, handle: h}
	r.order = append(r.order, def.Name)
}

// Definitions lists every tool in registration order.
func (r *Registry) Definitions() []protocol.ToolDefinition {
	defs := make([]protocol.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Call runs a tool. Unknown names wrap ErrUnknownTool and malformed
// arguments return *ArgsError. A terminal failure is not an error here: it
// comes back as a result with IsError set.
func (r *Registry) Call(name string, args json.RawMessage) (protocol.CallToolResult, error) {
	t, ok := r.tools[name]
	if !ok {
		return protocol.CallToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return t.handle(r, args)
}

func (r *Registry) wrote(n int) {
	if r.onWrite != nil && n > 0 {
		r.onWrite(n)
	}
}

// decodeArgs unmarshals tool arguments. Absent or null arguments decode as
// an empty object.
func decodeArgs[T any](name string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &out); err != nil {
		return out, &ArgsError{Tool: name, Err: err}
	}
	return out, nil
}
