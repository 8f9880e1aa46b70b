package terminal

import (
	"log"
	"strings"
)

// APCHandler handles an APC command with the given payload.
type APCHandler func(t *Terminal, data string)

// RegisterAPCHandler registers a handler for APC strings with the given
// prefix on this terminal.
func (t *Terminal) RegisterAPCHandler(prefix string, handler APCHandler) {
	if t.apcHandlers == nil {
		t.apcHandlers = map[string]APCHandler{}
	}
	t.apcHandlers[prefix] = handler
}

func (t *Terminal) handleAPC(code string) {
	for prefix, handler := range t.apcHandlers {
		if strings.HasPrefix(code, prefix) {
			handler(t, code[len(prefix):])
			return
		}
	}

	if t.debug {
		log.Println("Unrecognised APC", code)
	}
}

// handleDCS processes a complete Device Control String. The tmux
// passthrough convention wraps a nested sequence in "tmux;" with ESC
// doubled; the inner bytes are re-run through the interpreter.
func (t *Terminal) handleDCS(code string) {
	if strings.HasPrefix(code, "tmux;") {
		inner := strings.ReplaceAll(code[len("tmux;"):], "\x1b\x1b", "\x1b")
		t.handleOutput([]rune(inner))
		return
	}
	if t.debug {
		log.Println("Unhandled DCS", code)
	}
}
