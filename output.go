package terminal

import (
	"bytes"
	"log"
)

const (
	asciiBell      = 7
	asciiBackspace = 8
	asciiEscape    = 27

	tabWidth = 8
	bufLen   = 32768

	// a CSI parameter string longer than this is garbage, not a sequence
	maxCSILen = 64
)

// parserMode names the interpreter state the stream left off in. The tag
// makes resumption across chunk boundaries explicit.
type parserMode int

const (
	modeGround parserMode = iota
	modeEscape
	modeCSI
	modeOSC
	modeOSCEsc
	modeDCS
	modeDCSEsc
	modeAPC
	modeAPCEsc
	modeCharset
)

type parseState struct {
	mode          parserMode
	code          string
	charsetPrefix rune
	printing      bool
}

var charSetMap = map[charSet]func(rune) rune{
	charSetANSI: func(r rune) rune {
		return r
	},
	charSetDECSpecialGraphics: func(r rune) rune {
		m, ok := decSpecialGraphics[r]
		if ok {
			return m
		}
		return r
	},
}

var specialChars = map[rune]func(t *Terminal){
	asciiBell:      handleOutputBell,
	asciiBackspace: handleOutputBackspace,
	'\n':           handleOutputLineFeed,
	'\v':           handleOutputLineFeed,
	'\f':           handleOutputLineFeed,
	'\r':           handleOutputCarriageReturn,
	'\t':           handleOutputTab,
	0x0e:           handleShiftOut, // switch to G1 character set
	0x0f:           handleShiftIn,  // switch to G0 character set
}

// decSpecialGraphics is for ESC(0 graphics mode
// https://en.wikipedia.org/wiki/DEC_Special_Graphics
var decSpecialGraphics = map[rune]rune{
	'`': '◆', // filled in diamond
	'a': '▒', // filled in box
	'b': '␉', // horizontal tab symbol
	'c': '␌', // form feed symbol
	'd': '␍', // carriage return symbol
	'e': '␊', // line feed symbol
	'f': '°', // degree symbol
	'g': '±', // plus-minus sign
	'h': '␤', // new line symbol
	'i': '␋', // vertical tab symbol
	'j': '┘', // bottom right
	'k': '┐', // top right
	'l': '┌', // top left
	'm': '└', // bottom left
	'n': '┼', // cross
	'o': '⎺', // scan line 1
	'p': '⎻', // scan line 2
	'q': '─', // scan line 3
	'r': '─', // scan line 4
	's': '⎽', // scan line 5
	't': '├', // vertical and right
	'u': '┤', // vertical and left
	'v': '┴', // horizontal and up
	'w': '┬', // horizontal and down
	'x': '│', // vertical bar
	'y': '≤', // less or equal
	'z': '≥', // greater or equal
	'{': 'π', // pi
	'|': '≠', // not equal
	'}': '£', // Pounds currency symbol
	'~': '·', // centered dot
}

// handleOutput runs decoded runes through the interpreter. The parse state
// persists on the terminal, so a sequence split across reads resumes where
// it left off.
func (t *Terminal) handleOutput(runes []rune) {
	for _, r := range runes {
		t.processRune(r)
	}
}

func (t *Terminal) processRune(r rune) {
	if t.state.printing {
		t.parsePrinting(r)
		return
	}

	switch t.state.mode {
	case modeGround:
		t.parseGround(r)
	case modeEscape:
		t.parseEscState(r)
	case modeCSI:
		t.parseCSI(r)
	case modeOSC, modeOSCEsc:
		t.parseOSC(r)
	case modeDCS, modeDCSEsc:
		t.parseDCS(r)
	case modeAPC, modeAPCEsc:
		t.parseAPC(r)
	case modeCharset:
		t.parseCharset(r)
	}
}

func (t *Terminal) parseGround(r rune) {
	// 8-bit C1 controls equivalent to their two-byte ESC forms
	switch r {
	case 0x84: // IND
		t.scr.index()
		return
	case 0x85: // NEL
		t.scr.index()
		t.scr.carriageReturn()
		return
	case 0x8d: // RI
		t.scr.reverseIndex()
		return
	case 0x90: // DCS
		t.state.mode = modeDCS
		return
	case 0x9b: // CSI
		t.state.mode = modeCSI
		return
	case 0x9d: // OSC
		t.state.mode = modeOSC
		return
	case 0x9f: // APC
		t.state.mode = modeAPC
		return
	}

	if r == asciiEscape {
		t.state.mode = modeEscape
		return
	}
	if out, ok := specialChars[r]; ok {
		out(t)
		return
	}
	if r < ' ' {
		// remaining C0 controls have no effect
		return
	}

	if t.useG1CharSet {
		r = charSetMap[t.g1Charset](r)
	} else {
		r = charSetMap[t.g0Charset](r)
	}
	t.scr.writeRune(r)
}

func (t *Terminal) parseEscState(r rune) {
	t.state.mode = modeGround
	switch r {
	case '[':
		t.state.mode = modeCSI
		t.state.code = ""
	case ']':
		t.state.mode = modeOSC
		t.state.code = ""
	case 'P':
		t.state.mode = modeDCS
		t.state.code = ""
	case '_':
		t.state.mode = modeAPC
		t.state.code = ""
	case '(', ')':
		t.state.mode = modeCharset
		t.state.charsetPrefix = r
	case '7':
		t.scr.saveCursor()
	case '8':
		t.scr.restoreCursor()
	case 'D': // IND
		t.scr.index()
	case 'E': // NEL
		t.scr.index()
		t.scr.carriageReturn()
	case 'M': // RI
		t.scr.reverseIndex()
	case 'H': // HTS
		t.scr.setTabStop()
	case 'c': // RIS
		t.resetTerminal()
	case '\\': // stray ST
	case '=', '>': // keypad modes, not tracked
	default:
		if t.debug {
			log.Println("Unrecognised escape:", string(r))
		}
	}
}

// parseCSI accumulates parameter and intermediate bytes until a final byte
// (0x40-0x7e) arrives. An embedded C0 control aborts the sequence and is
// handled in ground state; an embedded ESC restarts.
func (t *Terminal) parseCSI(r rune) {
	if r == asciiEscape {
		t.state.mode = modeEscape
		t.state.code = ""
		return
	}
	if r < ' ' {
		t.state.mode = modeGround
		t.state.code = ""
		t.parseGround(r)
		return
	}
	if r >= '@' && r <= '~' {
		code := t.state.code + string(r)
		t.state.code = ""
		t.state.mode = modeGround
		t.handleEscape(code)
		return
	}
	t.state.code += string(r)
	if len(t.state.code) > maxCSILen {
		t.state.code = ""
		t.state.mode = modeGround
	}
}

func (t *Terminal) parseOSC(r rune) {
	if t.state.mode == modeOSCEsc {
		t.state.mode = modeOSC
		if r == '\\' {
			t.finishString(t.handleOSC)
			return
		}
		// the ESC was payload, keep it and fall through
		t.state.code += string(rune(asciiEscape))
	}
	switch r {
	case asciiBell, 0x9c: // BEL or C1 ST
		t.finishString(t.handleOSC)
	case asciiEscape:
		t.state.mode = modeOSCEsc
	default:
		t.state.code += string(r)
	}
}

// finishString resets the parser before dispatching so a handler that
// re-enters the interpreter (tmux passthrough) sees a clean ground state.
func (t *Terminal) finishString(handle func(string)) {
	code := t.state.code
	t.state.code = ""
	t.state.mode = modeGround
	handle(code)
}

func (t *Terminal) parseDCS(r rune) {
	if t.state.mode == modeDCSEsc {
		t.state.mode = modeDCS
		if r == '\\' {
			t.finishString(t.handleDCS)
			return
		}
		t.state.code += string(rune(asciiEscape))
	}
	switch r {
	case 0x9c: // C1 ST
		t.finishString(t.handleDCS)
	case asciiEscape:
		t.state.mode = modeDCSEsc
	default:
		t.state.code += string(r)
	}
}

func (t *Terminal) parseAPC(r rune) {
	if t.state.mode == modeAPCEsc {
		t.state.mode = modeAPC
		if r == '\\' {
			t.finishString(t.handleAPC)
			return
		}
		t.state.code += string(rune(asciiEscape))
	}
	switch r {
	case asciiBell, 0x9c: // BEL or C1 ST
		t.finishString(t.handleAPC)
	case asciiEscape:
		t.state.mode = modeAPCEsc
	default:
		t.state.code += string(r)
	}
}

func (t *Terminal) parseCharset(r rune) {
	set := charSetANSI
	if r == '0' {
		set = charSetDECSpecialGraphics
	}
	if t.state.charsetPrefix == ')' {
		t.g1Charset = set
	} else {
		t.g0Charset = set
	}
	t.state.charsetPrefix = 0
	t.state.mode = modeGround
}

var printEndSeq = []byte{asciiEscape, '[', '4', 'i'}

// parsePrinting spools output to the print buffer until the media-copy off
// sequence arrives.
func (t *Terminal) parsePrinting(r rune) {
	t.printData = append(t.printData, []byte(string(r))...)
	if bytes.HasSuffix(t.printData, printEndSeq) {
		t.printData = t.printData[:len(t.printData)-len(printEndSeq)]
		escapePrinterMode(t, "4")
	}
}

func handleOutputBell(t *Terminal) {
	if t.onBell != nil {
		t.onBell()
	}
}

func handleOutputBackspace(t *Terminal) {
	t.scr.backspace()
}

func handleOutputCarriageReturn(t *Terminal) {
	t.scr.carriageReturn()
}

func handleOutputLineFeed(t *Terminal) {
	t.scr.lineFeed(false)
}

func handleOutputTab(t *Terminal) {
	t.scr.tab()
}

func handleShiftOut(t *Terminal) {
	t.useG1CharSet = true
}

func handleShiftIn(t *Terminal) {
	t.useG1CharSet = false
}
