package terminal

import (
	"context"
	"io"
	"sync"
)

// Config holds the engine parameters. Zero values select the defaults
// noted on each field.
type Config struct {
	// Shell is the program to spawn, default $SHELL then "bash".
	Shell string
	// Dir is the child's initial working directory.
	Dir string
	// Term is the TERM value advertised, default "xterm-256color".
	Term string
	// Columns and Rows are the initial grid size, default 80x24.
	Columns, Rows int
	// HistoryLimit caps the scrollback line count, default 1000. Zero
	// keeps the default; negative disables scrollback.
	HistoryLimit int
	// Debug enables logging of unrecognised sequences.
	Debug bool
}

func (c *Config) setDefaults() {
	if c.Term == "" {
		c.Term = "xterm-256color"
	}
	if c.Columns < 1 {
		c.Columns = 80
	}
	if c.Rows < 1 {
		c.Rows = 24
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 1000
	}
	if c.HistoryLimit < 0 {
		c.HistoryLimit = 0
	}
}

type charSet int

const (
	charSetANSI charSet = iota
	charSetDECSpecialGraphics
)

// Terminal is the emulation engine: it owns the shell session, runs the
// decoder and interpreter over its output, and exposes the resulting grid
// through Snapshot. All mutation happens on the Run goroutine; the
// accessors lock against it.
type Terminal struct {
	mu sync.Mutex

	config Config
	scr    *screen
	state  parseState
	dec    *streamDecoder

	session *Session
	in      io.Writer // reply channel for DSR/DA, the session when running
	running bool

	commands chan func()
	done     chan struct{} // closed when the run loop stops consuming

	title      string
	workingDir string

	g0Charset    charSet
	g1Charset    charSet
	useG1CharSet bool

	oscHandlers map[int]OSCHandler
	apcHandlers map[string]APCHandler

	printer   Printer
	printData []byte

	onTitle func(string)
	onBell  func()
	onExit  func(code int)

	debug bool
}

// Printer is used for spooling print data when it is received.
type Printer interface {
	Print([]byte)
}

// PrinterFunc is a helper to implement Printer with a plain function.
type PrinterFunc func([]byte)

// Print calls the PrinterFunc.
func (p PrinterFunc) Print(d []byte) {
	p(d)
}

// SetPrinterFunc sets the printer function executed when media copy ends.
func (t *Terminal) SetPrinterFunc(printerFunc PrinterFunc) {
	t.printer = printerFunc
}

// New builds an engine with no attached session. Output can be injected
// for testing; call Run to attach a live shell.
func New(cfg Config) *Terminal {
	cfg.setDefaults()
	return &Terminal{
		config:   cfg,
		scr:      newScreen(cfg.Columns, cfg.Rows, cfg.HistoryLimit),
		dec:      newStreamDecoder(),
		commands: make(chan func(), 16),
		done:     make(chan struct{}),
		debug:    cfg.Debug,
	}
}

// OnTitle registers a callback fired when the child sets the window title.
func (t *Terminal) OnTitle(f func(string)) {
	t.onTitle = f
}

// OnBell registers a callback fired when the child rings the bell.
func (t *Terminal) OnBell(f func()) {
	t.onBell = f
}

// OnExit registers a callback fired with the shell's exit code when the
// session ends.
func (t *Terminal) OnExit(f func(code int)) {
	t.onExit = f
}

// Run spawns the shell and blocks until it exits or ctx is cancelled.
// Spawn failures are returned synchronously as *SpawnError. A clean child
// exit returns nil. Run drives one session; it must not be called again
// after the session ends.
func (t *Terminal) Run(ctx context.Context) error {
	t.mu.Lock()
	cols, rows := t.scr.cols, t.scr.rows
	t.mu.Unlock()

	s, err := OpenSession(SessionConfig{
		Shell:   t.config.Shell,
		Dir:     t.config.Dir,
		Term:    t.config.Term,
		Columns: cols,
		Rows:    rows,
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.session = s
	t.in = s
	t.running = true
	t.mu.Unlock()

	data := make(chan []byte, 16)
	go func() {
		for {
			buf := make([]byte, bufLen)
			n, err := s.Read(buf)
			if n > 0 {
				data <- buf[:n]
			}
			if err != nil {
				close(data)
				return
			}
		}
	}()

	for {
		select {
		case chunk, ok := <-data:
			if !ok {
				t.finish(s)
				return nil
			}
			t.mu.Lock()
			t.handleOutput(t.dec.decode(chunk))
			t.mu.Unlock()
		case cmd := <-t.commands:
			cmd()
		case <-ctx.Done():
			s.Terminate()
			// the reader closes data once the PTY goes away; drain what
			// was already queued so the final snapshot is complete
			for chunk := range data {
				t.mu.Lock()
				t.handleOutput(t.dec.decode(chunk))
				t.mu.Unlock()
			}
			t.finish(s)
			return ctx.Err()
		}
	}
}

func (t *Terminal) finish(s *Session) {
	t.mu.Lock()
	t.handleOutput(t.dec.flush())
	t.running = false
	t.mu.Unlock()
	close(t.done)
	s.Terminate()
	if t.onExit != nil {
		t.onExit(s.ExitCode())
	}
}

// Resize changes the grid size, reflowing per the documented policy, and
// propagates the size to the PTY. While a session is running the resize is
// serialized with output handling so it never lands inside an escape
// sequence.
func (t *Terminal) Resize(cols, rows int) {
	apply := func() {
		t.mu.Lock()
		t.scr.resize(cols, rows)
		s := t.session
		t.mu.Unlock()
		if s != nil {
			_ = s.Resize(cols, rows)
		}
	}

	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if running {
		// block until the run loop takes the command so the resize can
		// never land mid-sequence; done unblocks us if the loop has quit
		select {
		case t.commands <- apply:
			return
		case <-t.done:
		}
	}
	apply()
}

// SendKey encodes a key event and queues it for the shell. Events with no
// terminal encoding are dropped.
func (t *Terminal) SendKey(ev KeyEvent) {
	t.mu.Lock()
	appCursor := t.scr.appCursorKeys
	s := t.session
	t.mu.Unlock()

	b := encodeKey(ev, appCursor)
	if b == nil || s == nil {
		return
	}
	_, _ = s.Write(b)
}

// SendText queues raw text for the shell without any encoding.
func (t *Terminal) SendText(text string) {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s == nil {
		return
	}
	_, _ = s.Write([]byte(text))
}

// Paste queues pasted text, wrapped in bracketed-paste markers when the
// child has turned that mode on.
func (t *Terminal) Paste(text string) {
	t.mu.Lock()
	bracketed := t.scr.bracketedPaste
	s := t.session
	t.mu.Unlock()
	if s == nil {
		return
	}
	if bracketed {
		buf := make([]byte, 0, len(text)+len(pasteStart)+len(pasteEnd))
		buf = append(buf, pasteStart...)
		buf = append(buf, text...)
		buf = append(buf, pasteEnd...)
		_, _ = s.Write(buf)
		return
	}
	_, _ = s.Write([]byte(text))
}

// reply writes interpreter-generated responses (DSR, DA, window reports)
// back toward the child.
func (t *Terminal) reply(b []byte) {
	if t.in == nil {
		return
	}
	_, _ = t.in.Write(b)
}

// Cursor is the cursor position and visibility at snapshot time.
type Cursor struct {
	Row, Col int
	Visible  bool
}

// Snapshot is a consistent copy of the visible grid for rendering. Cells
// rows are always exactly Columns wide; a trailing cell of a wide rune has
// Rune 0 and must be skipped when drawing.
type Snapshot struct {
	Columns, Rows int
	Cells         [][]Cell
	Cursor        Cursor
	Title         string
}

// Snapshot returns a deep copy of the current screen state. It is safe to
// call from any goroutine and the result never changes under the caller.
func (t *Terminal) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	cells := make([][]Cell, t.scr.rows)
	for i, row := range t.scr.lines {
		cells[i] = append([]Cell(nil), row...)
	}
	return Snapshot{
		Columns: t.scr.cols,
		Rows:    t.scr.rows,
		Cells:   cells,
		Cursor: Cursor{
			Row:     t.scr.cursorRow,
			Col:     t.scr.cursorCol,
			Visible: t.scr.cursorVisible,
		},
		Title: t.title,
	}
}

// ScrollbackLen reports how many lines of history are retained.
func (t *Terminal) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scr.history.len()
}

// ScrollbackLine returns a copy of the history line at offset, 0 being the
// line most recently scrolled off the grid. Returns nil when offset is out
// of range.
func (t *Terminal) ScrollbackLine(offset int) []Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	line := t.scr.history.line(offset)
	if line == nil {
		return nil
	}
	return append([]Cell(nil), line...)
}

// Title returns the window title most recently set by the child.
func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// WorkingDir returns the directory last reported by the shell via OSC 7,
// or empty if it never reported one.
func (t *Terminal) WorkingDir() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workingDir
}

// ExitCode returns the shell's exit status, or -1 while it is running.
func (t *Terminal) ExitCode() int {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s == nil {
		return -1
	}
	return s.ExitCode()
}

// Exit requests that the shell session terminates. It does not wait; Run
// returns once the session winds down.
func (t *Terminal) Exit() {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s != nil {
		s.Terminate()
	}
}

// processOutput decodes raw bytes and runs them through the interpreter.
// It is the same path Run uses and exists so hosts and tests can drive the
// engine without a PTY.
func (t *Terminal) processOutput(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handleOutput(t.dec.decode(data))
}

// text renders the visible grid as a string with trailing blanks trimmed,
// one line per row. Test helper.
func (t *Terminal) text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := ""
	for i, row := range t.scr.lines {
		line := ""
		for _, c := range row {
			if c.Rune != 0 {
				line += string(c.Rune)
			}
		}
		end := len(line)
		for end > 0 && line[end-1] == ' ' {
			end--
		}
		if i > 0 {
			out += "\n"
		}
		out += line[:end]
	}
	return out
}
