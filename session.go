package terminal

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Write and Resize after the child has
// exited or Terminate has run.
var ErrSessionClosed = errors.New("terminal: session closed")

// SpawnError reports a failure to start the shell process. It wraps the
// underlying exec or PTY error.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("terminal: spawn %q: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// SessionConfig carries the parameters for OpenSession. Zero values pick
// the documented defaults.
type SessionConfig struct {
	// Shell is the program to run. Empty means $SHELL, falling back to
	// "bash".
	Shell string
	// Dir is the child's working directory. Empty inherits ours.
	Dir string
	// Term is the TERM value advertised to the child, default
	// "xterm-256color".
	Term string
	// Columns and Rows size the PTY at spawn, defaults 80x24.
	Columns, Rows int
}

func (c *SessionConfig) setDefaults() {
	if c.Term == "" {
		c.Term = "xterm-256color"
	}
	if c.Columns < 1 {
		c.Columns = 80
	}
	if c.Rows < 1 {
		c.Rows = 24
	}
}
