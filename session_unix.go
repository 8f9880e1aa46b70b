//go:build !windows

package terminal

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const terminateGrace = 3 * time.Second

// Session owns one shell child and its PTY. Read is meant for a single
// consumer; Write, Resize and Terminate may be called from any goroutine.
type Session struct {
	cmd *exec.Cmd
	pty *os.File

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	closed  bool

	termOnce sync.Once
	waitOnce sync.Once
	waitErr  error

	exited   bool // guarded by mu, set once the child is reaped
	exitCode int
}

// OpenSession forks the configured shell on a fresh PTY. Spawn failures
// are reported synchronously as *SpawnError.
func OpenSession(cfg SessionConfig) (*Session, error) {
	cfg.setDefaults()
	shell := cfg.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "bash"
	}

	cmd := exec.Command(shell)
	cmd.Dir = cfg.Dir
	env := os.Environ()
	env = append(env, "TERM="+cfg.Term)
	cmd.Env = env

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(cfg.Rows),
		Cols: uint16(cfg.Columns),
	})
	if err != nil {
		return nil, &SpawnError{Shell: shell, Err: err}
	}

	s := &Session{cmd: cmd, pty: f}
	s.cond = sync.NewCond(&s.mu)
	go s.writeLoop()
	return s, nil
}

// Read fills p with output from the child. When the child exits the
// kernel-specific errors (EIO on Linux, plain EOF elsewhere) are
// normalized to io.EOF, after which the session is closed for writing.
func (s *Session) Read(p []byte) (int, error) {
	n, err := s.pty.Read(p)
	if err != nil {
		if isClosedRead(err) {
			err = io.EOF
		}
		if err == io.EOF {
			s.markClosed()
		}
	}
	return n, err
}

func isClosedRead(err error) bool {
	if err == io.EOF {
		return true
	}
	if pe, ok := err.(*os.PathError); ok {
		if errno, ok := pe.Err.(syscall.Errno); ok && errno == syscall.EIO {
			return true
		}
	}
	return strings.Contains(err.Error(), "file already closed")
}

// Write queues p for delivery to the child and returns immediately. Queued
// bytes are written in order by a dedicated goroutine. After close it
// returns ErrSessionClosed.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.pending = append(s.pending, p...)
	s.cond.Signal()
	return len(p), nil
}

func (s *Session) writeLoop() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		buf := s.pending
		s.pending = nil
		s.mu.Unlock()

		if _, err := s.pty.Write(buf); err != nil {
			s.markClosed()
			return
		}
	}
}

// Resize updates the PTY dimensions, which delivers SIGWINCH to the
// child's foreground process group. Calling with the current size is a
// no-op beyond the kernel round trip.
func (s *Session) Resize(cols, rows int) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	if cols < 1 || rows < 1 {
		return nil
	}
	return pty.Setsize(s.pty, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Terminate ends the child: SIGTERM, a bounded grace period, then SIGKILL,
// and finally reaps the process and closes the PTY. Safe to call more than
// once and after the child has already exited.
func (s *Session) Terminate() {
	s.termOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
		}
		done := make(chan struct{})
		go func() {
			s.wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(terminateGrace):
			if s.cmd.Process != nil {
				_ = s.cmd.Process.Kill()
			}
			<-done
		}
		s.markClosed()
		_ = s.pty.Close()
	})
}

func (s *Session) wait() {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		code := -1
		if ps := s.cmd.ProcessState; ps != nil {
			code = ps.ExitCode()
			if code == -1 {
				// shell convention for signal deaths
				if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
					code = 128 + int(ws.Signal())
				}
			}
		}
		s.mu.Lock()
		s.waitErr = err
		s.exitCode = code
		s.exited = true
		s.mu.Unlock()
	})
}

// ExitCode returns the child's exit status, or -1 if it has not been
// reaped yet. A child killed by a signal reports 128 plus the signal
// number, the usual shell convention.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exited {
		return -1
	}
	return s.exitCode
}

func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}
