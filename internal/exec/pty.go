package exec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
)

var (
	ErrCreate = errors.New("failed to create pty")
	ErrSpawn  = errors.New("failed to spawn process")
	ErrWrite  = errors.New("failed to write to pty")
	ErrResize = errors.New("failed to resize pty")
)

const (
	readChunkSize   = 4096
	outputQueueSize = 256
)

type PTYConfig struct {
	Shell      string
	Args       []string
	Cols       uint16
	Rows       uint16
	WorkingDir string
	Env        map[string]string
}

// PTYSession owns one pty master and the shell running on its slave side.
// Output is only available through Output(); there is no synchronous read.
type PTYSession struct {
	Cmd       *exec.Cmd
	File      *os.File
	StartedAt time.Time

	mu     sync.Mutex
	cols   uint16
	rows   uint16
	state  ProcessState
	output chan []byte
	exited chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func StartPTY(cfg PTYConfig, logger *zap.Logger) (*PTYSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreate, err)
	}
	// The parent never needs the slave once the child holds it.
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: cfg.Cols, Rows: cfg.Rows}); err != nil {
		_ = ptmx.Close()
		return nil, fmt.Errorf("%w: %v", ErrCreate, err)
	}

	cmd := exec.Command(cfg.Shell, cfg.Args...)
	cmd.Dir = cfg.WorkingDir
	cmd.Env = buildEnv(cfg.Env)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if err := cmd.Start(); err != nil {
		_ = ptmx.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, cfg.Shell, err)
	}

	ps := &PTYSession{
		Cmd:       cmd,
		File:      ptmx,
		StartedAt: time.Now().UTC(),
		cols:      cfg.Cols,
		rows:      cfg.Rows,
		output:    make(chan []byte, outputQueueSize),
		exited:    make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go ps.readOutput()
	go ps.wait()

	logger.Info("pty started",
		zap.String("shell", cfg.Shell),
		zap.Int("pid", cmd.Process.Pid),
		zap.Uint16("cols", cfg.Cols),
		zap.Uint16("rows", cfg.Rows))
	return ps, nil
}

// buildEnv layers overrides on the inherited environment. TERM is always
// forced to xterm-256color because the screen model speaks that dialect.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return append(env, "TERM=xterm-256color")
}

func (ps *PTYSession) readOutput() {
	defer close(ps.output)
	buf := make([]byte, readChunkSize)
	for {
		n, err := ps.File.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case ps.output <- chunk:
			case <-ps.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				ps.logger.Debug("pty reader stopped", zap.Error(err))
			} else {
				ps.logger.Debug("pty reader reached EOF")
			}
			return
		}
	}
}

func (ps *PTYSession) wait() {
	defer close(ps.exited)
	state := exitState(ps.Cmd.Wait())
	ps.mu.Lock()
	ps.state = state
	ps.mu.Unlock()

	fields := []zap.Field{zap.String("status", state.Status), zap.Duration("uptime", time.Since(ps.StartedAt))}
	if state.ExitCode != nil {
		fields = append(fields, zap.Int("exit_code", *state.ExitCode))
	}
	if state.Signal != nil {
		fields = append(fields, zap.String("signal", *state.Signal))
	}
	ps.logger.Info("shell exited", fields...)
}

// State reports how the shell ended. ok is false while it is still running.
func (ps *PTYSession) State() (state ProcessState, ok bool) {
	select {
	case <-ps.exited:
	default:
		return ProcessState{}, false
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.state, true
}

// Output delivers PTY output chunks in order. It is closed when the reader
// hits EOF or a read error.
func (ps *PTYSession) Output() <-chan []byte {
	return ps.output
}

// Exited is closed once the shell process has been reaped.
func (ps *PTYSession) Exited() <-chan struct{} {
	return ps.exited
}

func (ps *PTYSession) Write(data []byte) (int, error) {
	n, err := ps.File.Write(data)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	ps.logger.Debug("wrote to pty", zap.Int("bytes", n))
	return n, nil
}

func (ps *PTYSession) Resize(cols, rows uint16) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if err := pty.Setsize(ps.File, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("%w: %v", ErrResize, err)
	}
	ps.cols = cols
	ps.rows = rows
	return nil
}

// Size reports (cols, rows).
func (ps *PTYSession) Size() (uint16, uint16) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.cols, ps.rows
}

func (ps *PTYSession) Pid() int {
	return ps.Cmd.Process.Pid
}

// Close releases the master side. The kernel hangs up the slave, which
// terminates an interactive shell.
func (ps *PTYSession) Close() error {
	var err error
	ps.once.Do(func() {
		close(ps.done)
		err = ps.File.Close()
	})
	return err
}
