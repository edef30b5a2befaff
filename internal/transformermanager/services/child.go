// Package services implements the Transformer Manager: a supervisor of
// named child worker processes that answers liveness pings with a
// heartbeat enumerating running/dead children and restarts dead ones.
package services

import (
	"os/exec"
	"sync"
	"syscall"
)

// ChildHandle is the capability the manager needs from a supervised
// worker process: start it, probe liveness, join it to release
// resources, and terminate it. The production implementation is backed
// by os/exec.Cmd.
type ChildHandle interface {
	Start() error
	IsAlive() bool
	Join() error
	Terminate() error
}

// ExecChildHandle runs a named binary as a real child OS process.
type ExecChildHandle struct {
	mu      sync.Mutex
	path    string
	args    []string
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// NewExecChildHandle returns a handle that will run path with args when
// Start is called.
func NewExecChildHandle(path string, args ...string) *ExecChildHandle {
	return &ExecChildHandle{path: path, args: args}
}

// Start launches the child process. Calling Start while already alive
// is a no-op.
func (h *ExecChildHandle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd != nil && h.isAliveLocked() {
		return nil
	}

	cmd := exec.Command(h.path, h.args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	h.cmd = cmd
	h.waitErr = nil
	done := make(chan struct{})
	h.done = done
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(done)
	}()
	return nil
}

// IsAlive reports whether the child process is currently running.
func (h *ExecChildHandle) IsAlive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isAliveLocked()
}

func (h *ExecChildHandle) isAliveLocked() bool {
	if h.cmd == nil || h.cmd.Process == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Join blocks until the child process's Wait has completed, releasing
// its OS resources.
func (h *ExecChildHandle) Join() error {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

// Terminate sends a termination signal to the child process.
func (h *ExecChildHandle) Terminate() error {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(syscall.SIGTERM)
}
