// Package audit appends one JSON line per tool call to a rotated file.
package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Entry struct {
	Timestamp  string          `json:"timestamp"`
	CallID     string          `json:"call_id"`
	Method     string          `json:"method"`
	Tool       string          `json:"tool,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	IsError    bool            `json:"is_error"`
	Error      string          `json:"error,omitempty"`
	DurationMs float64         `json:"duration_ms"`
}

type Options struct {
	MaxSizeMB  int
	MaxBackups int
}

// Logger is safe for concurrent use. A disabled Logger drops everything.
type Logger struct {
	enabled bool
	out     io.WriteCloser
	mu      sync.Mutex
	now     func() time.Time
}

func New(enabled bool, path string, opts Options) *Logger {
	if !enabled || path == "" {
		return &Logger{}
	}
	return newLogger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	})
}

func newLogger(out io.WriteCloser) *Logger {
	return &Logger{enabled: true, out: out, now: time.Now}
}

// NewCallID returns a fresh identifier for correlating a call's entry with
// log lines.
func NewCallID() string {
	return uuid.NewString()
}

func (l *Logger) Enabled() bool {
	return l.enabled
}

func (l *Logger) Write(entry Entry) {
	if !l.enabled {
		return
	}
	entry.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	if entry.CallID == "" {
		entry.CallID = NewCallID()
	}
	raw, err := sonic.ConfigStd.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(raw, '\n'))
}

func (l *Logger) Close() error {
	if !l.enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
