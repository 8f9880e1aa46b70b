package terminal

import (
	"log"
	"strconv"
	"strings"
)

// OSCHandler is invoked with the payload of a registered OSC command.
type OSCHandler func(data string)

// RegisterOSCHandler routes the given OSC command number to handler,
// overriding the built-in behavior for that number.
func (t *Terminal) RegisterOSCHandler(command int, handler OSCHandler) {
	if t.oscHandlers == nil {
		t.oscHandlers = map[int]OSCHandler{}
	}
	t.oscHandlers[command] = handler
}

func (t *Terminal) handleOSC(code string) {
	if len(code) == 0 {
		return
	}

	parts := strings.SplitN(code, ";", 2)
	if len(parts) < 2 {
		if t.debug {
			log.Println("Invalid OSC format:", code)
		}
		return
	}

	commandNum, err := strconv.Atoi(parts[0])
	if err != nil {
		if t.debug {
			log.Println("Invalid OSC command number:", parts[0])
		}
		return
	}
	data := parts[1]

	if handler, exists := t.oscHandlers[commandNum]; exists {
		handler(data)
		return
	}

	switch commandNum {
	case 0, 2:
		// 0 sets icon name and window title, 2 just the title; we track
		// one title either way
		t.setTitle(data)
	case 1:
		// icon name only, nothing to track
	case 7:
		t.setWorkingDir(data)
	case 133:
		// shell integration prompt marks, consumed so they do not show
		// up as unrecognised
		if t.debug {
			log.Println("Shell integration mark:", data)
		}
	default:
		if t.debug {
			log.Println("Unrecognised OSC:", code)
		}
	}
}

func (t *Terminal) setTitle(title string) {
	t.title = title
	if t.onTitle != nil {
		t.onTitle(title)
	}
}

// setWorkingDir records the directory reported by the shell via OSC 7. The
// value is retained for the host to query, never chdir'd into.
func (t *Terminal) setWorkingDir(uri string) {
	dir := uri
	if strings.HasPrefix(uri, "file://") {
		dir = uri[len("file://"):]
		// strip the hostname component if present
		if i := strings.Index(dir, "/"); i > 0 {
			dir = dir[i:]
		}
	}
	t.workingDir = dir
}
