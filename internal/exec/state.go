package exec

import (
	"errors"
	"os/exec"
	"syscall"
)

// ProcessState describes how the shell ended.
type ProcessState struct {
	Status   string  `json:"status"`
	ExitCode *int    `json:"exit_code,omitempty"`
	Signal   *string `json:"signal,omitempty"`
}

func exitState(waitErr error) ProcessState {
	state := ProcessState{Status: "exited"}
	if waitErr == nil {
		code := 0
		state.ExitCode = &code
		return state
	}
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		state.Status = "unknown"
		return state
	}
	code := exitErr.ExitCode()
	state.ExitCode = &code
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		s := ws.Signal().String()
		state.Signal = &s
		state.Status = "killed"
	}
	return state
}
