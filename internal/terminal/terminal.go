// Package terminal ties a pty-backed shell to a screen model and answers
// questions about what the shell has drawn.
package terminal

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samiralibabic/rexterm/internal/exec"
	"github.com/samiralibabic/rexterm/internal/keys"
	"github.com/samiralibabic/rexterm/internal/screen"
)

// ClearSequence erases the display and homes the cursor.
const ClearSequence = "\x1b[2J\x1b[H"

type Config struct {
	Shell      string
	Args       []string
	Cols       uint16
	Rows       uint16
	WorkingDir string
	Env        map[string]string
}

// Error is returned by every engine operation that fails. Err is one of
// the exec sentinel errors, wrapped.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// device is the pty side the engine drives.
type device interface {
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Output() <-chan []byte
	Close() error
}

// Terminal owns one pty session and the screen its output is rendered to.
// Queries first apply the output already queued by the shell. A
// Terminal is not safe for concurrent use.
type Terminal struct {
	dev    device
	output <-chan []byte
	screen *screen.Screen
	logger *zap.Logger

	cols int
	rows int
}

// New starts the shell and returns an engine attached to it.
func New(cfg Config, logger *zap.Logger) (*Terminal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ps, err := exec.StartPTY(exec.PTYConfig{
		Shell:      cfg.Shell,
		Args:       cfg.Args,
		Cols:       cfg.Cols,
		Rows:       cfg.Rows,
		WorkingDir: cfg.WorkingDir,
		Env:        cfg.Env,
	}, logger.Named("pty"))
	if err != nil {
		return nil, &Error{Op: "create", Err: err}
	}
	return newTerminal(ps, cfg.Cols, cfg.Rows, logger), nil
}

func newTerminal(dev device, cols, rows uint16, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Terminal{
		dev:    dev,
		output: dev.Output(),
		screen: screen.New(int(rows), int(cols)),
		logger: logger,
	}
	t.rows, t.cols = t.screen.Size()
	return t
}

// ProcessOutput applies the chunks queued by the pty reader when it is
// called, without waiting for more. Chunks that arrive during the drain are
// left for the next call.
func (t *Terminal) ProcessOutput() {
	// one extra receive notices a closed channel
	t.drain(len(t.output) + 1)
}

// drain applies at most n queued chunks.
func (t *Terminal) drain(n int) {
	for ; n > 0; n-- {
		select {
		case chunk, ok := <-t.output:
			if !ok {
				t.readerDone()
				return
			}
			_, _ = t.screen.Write(chunk)
		default:
			return
		}
	}
}

// ProcessOutputWithTimeout drains, then waits up to d for one more chunk,
// then drains again. It reports whether anything new arrived while waiting.
func (t *Terminal) ProcessOutputWithTimeout(d time.Duration) bool {
	t.ProcessOutput()
	if t.output == nil {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case chunk, ok := <-t.output:
		if !ok {
			t.readerDone()
			return false
		}
		_, _ = t.screen.Write(chunk)
		t.ProcessOutput()
		return true
	case <-timer.C:
		return false
	}
}

// readerDone stops polling a closed output channel. A nil channel is never
// ready, so later drains fall through to default.
func (t *Terminal) readerDone() {
	if t.output != nil {
		t.logger.Debug("pty output closed")
	}
	t.output = nil
}

func (t *Terminal) Write(p []byte) (int, error) {
	n, err := t.dev.Write(p)
	if err != nil {
		return n, &Error{Op: "write", Err: err}
	}
	return n, nil
}

func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// SendKey writes the sequence for a named key. Unknown names are written
// as literal text.
func (t *Terminal) SendKey(name string) error {
	_, err := t.Write(keys.Encode(name))
	return err
}

// Resize changes the pty window and the screen together. Output produced
// at the old size is applied first.
func (t *Terminal) Resize(cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return &Error{Op: "resize", Err: fmt.Errorf("%w: %dx%d", exec.ErrResize, cols, rows)}
	}
	t.ProcessOutput()
	if err := t.dev.Resize(cols, rows); err != nil {
		return &Error{Op: "resize", Err: err}
	}
	t.screen.SetSize(int(rows), int(cols))
	t.rows, t.cols = t.screen.Size()
	t.logger.Debug("resized", zap.Uint16("cols", cols), zap.Uint16("rows", rows))
	return nil
}

// Size reports (cols, rows).
func (t *Terminal) Size() (int, int) {
	return t.cols, t.rows
}

// Content returns every screen row at full width, joined by newlines.
func (t *Terminal) Content() string {
	t.ProcessOutput()
	return t.screen.Contents()
}

// ContentRange returns rows [start, min(end, rows)). Out of range bounds
// are clamped and an empty range yields "".
func (t *Terminal) ContentRange(start, end int) string {
	t.ProcessOutput()
	start = max(start, 0)
	end = min(end, t.rows)
	if start >= end {
		return ""
	}
	lines := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		lines = append(lines, t.screen.ContentsBetween(row, 0, row, t.cols))
	}
	return strings.Join(lines, "\n")
}

// Screenshot renders the screen with its colours and attributes as ANSI
// text. Stripped of escapes it equals Content.
func (t *Terminal) Screenshot() string {
	t.ProcessOutput()
	return Render(t.screen)
}

// Snapshot renders the screen and reads the cursor after a single drain,
// so both describe the same state.
func (t *Terminal) Snapshot() (shot string, row, col int) {
	t.ProcessOutput()
	row, col = t.screen.CursorPosition()
	return Render(t.screen), row, col
}

// Scrollback returns lines that scrolled off the top, oldest first.
func (t *Terminal) Scrollback() []string {
	t.ProcessOutput()
	return t.screen.Scrollback()
}

// CursorPosition reports the zero-based (row, col) of the cursor.
func (t *Terminal) CursorPosition() (int, int) {
	t.ProcessOutput()
	return t.screen.CursorPosition()
}

// Clear asks the shell's terminal to clear itself. The screen model only
// changes once the sequence comes back as output.
func (t *Terminal) Clear() error {
	_, err := t.WriteString(ClearSequence)
	return err
}

// Close hangs up the pty. The shell sees SIGHUP and exits.
func (t *Terminal) Close() error {
	if err := t.dev.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}
