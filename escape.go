package terminal

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

var escapes = map[rune]func(*Terminal, string){
	'@': escapeInsertChars,
	'A': escapeMoveCursorUp,
	'B': escapeMoveCursorDown,
	'C': escapeMoveCursorRight,
	'D': escapeMoveCursorLeft,
	'E': escapeCursorNextLine, // CNL
	'F': escapeCursorPrevLine, // CPL
	'G': escapeMoveCursorCol,
	'H': escapeMoveCursor,
	'f': escapeMoveCursor,
	'd': escapeMoveCursorRow,
	'a': escapeHPR, // HPR: cursor forward by columns
	'e': escapeVPR, // VPR: cursor down by rows
	'h': escapeModeOn,
	'l': escapeModeOff,
	'm': escapeColorMode,
	'n': escapeDeviceStatusReport,
	'J': escapeEraseInScreen,
	'K': escapeEraseInLine,
	'L': escapeInsertLines,
	'M': escapeDeleteLines,
	'P': escapeDeleteChars,
	'X': escapeEraseChars, // ECH
	'S': escapeScrollUp,
	'T': escapeScrollDown,
	'g': escapeTabClear,
	'r': escapeSetScrollArea,
	's': escapeSaveCursor,
	'u': escapeRestoreCursor,
	'c': escapeDeviceAttribute,
	'i': escapePrinterMode,
	'p': escapeSoftReset,
	'q': escapeCursorStyle,
	't': escapeWindowManipulation,
}

// handleEscape dispatches a complete CSI sequence on its final byte.
// Unrecognised finals are consumed without effect so a misbehaving program
// cannot corrupt the grid.
func (t *Terminal) handleEscape(code string) {
	if code == "" {
		return
	}
	final := rune(code[len(code)-1])
	if esc, ok := escapes[final]; ok {
		esc(t, code[:len(code)-1])
	} else if t.debug {
		log.Println("Unrecognised Escape:", code)
	}
}

// param parses a single numeric parameter, substituting def when the
// string is empty or malformed.
func param(msg string, def int) int {
	n, err := strconv.Atoi(msg)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// resetTerminal performs a full reset equivalent to RIS (ESC c).
func (t *Terminal) resetTerminal() {
	t.scr.exitAlt(false)
	t.scr.resetModes()
	t.scr.clearAllTabStops()
	for col := 0; col < t.scr.cols; col += tabWidth {
		t.scr.tabStops[col] = true
	}
	t.g0Charset = charSetANSI
	t.g1Charset = charSetANSI
	t.useG1CharSet = false
	t.scr.eraseInDisplay(2)
	t.scr.moveCursorTo(0, 0)
}

func escapeColorMode(t *Terminal, msg string) {
	t.handleColorEscape(msg)
}

func escapeInsertChars(t *Terminal, msg string) {
	t.scr.insertChars(param(msg, 1))
}

func escapeDeleteChars(t *Terminal, msg string) {
	t.scr.deleteChars(param(msg, 1))
}

func escapeEraseChars(t *Terminal, msg string) {
	t.scr.eraseChars(param(msg, 1))
}

func escapeInsertLines(t *Terminal, msg string) {
	t.scr.insertLines(param(msg, 1))
}

func escapeDeleteLines(t *Terminal, msg string) {
	t.scr.deleteLines(param(msg, 1))
}

func escapeEraseInScreen(t *Terminal, msg string) {
	mode, _ := strconv.Atoi(msg)
	t.scr.eraseInDisplay(mode)
}

func escapeEraseInLine(t *Terminal, msg string) {
	mode, _ := strconv.Atoi(msg)
	t.scr.eraseInLine(mode)
}

func escapeMoveCursorUp(t *Terminal, msg string) {
	t.scr.cursorUp(param(msg, 1))
}

func escapeMoveCursorDown(t *Terminal, msg string) {
	t.scr.cursorDown(param(msg, 1))
}

func escapeMoveCursorRight(t *Terminal, msg string) {
	t.scr.cursorForward(param(msg, 1))
}

func escapeMoveCursorLeft(t *Terminal, msg string) {
	t.scr.cursorBack(param(msg, 1))
}

// CSI E: cursor down N rows, column 1
func escapeCursorNextLine(t *Terminal, msg string) {
	t.scr.cursorDown(param(msg, 1))
	t.scr.carriageReturn()
}

// CSI F: cursor up N rows, column 1
func escapeCursorPrevLine(t *Terminal, msg string) {
	t.scr.cursorUp(param(msg, 1))
	t.scr.carriageReturn()
}

// CSI G: CHA, cursor to absolute column
func escapeMoveCursorCol(t *Terminal, msg string) {
	t.scr.moveCursorTo(t.scr.cursorRow, param(msg, 1)-1)
}

// CSI d: VPA, cursor to absolute row, origin-mode aware
func escapeMoveCursorRow(t *Terminal, msg string) {
	row := param(msg, 1) - 1
	if t.scr.originMode {
		row += t.scr.scrollTop
	}
	t.scr.moveCursorTo(row, t.scr.cursorCol)
}

func escapeHPR(t *Terminal, msg string) {
	t.scr.cursorForward(param(msg, 1))
}

func escapeVPR(t *Terminal, msg string) {
	t.scr.cursorDown(param(msg, 1))
}

// CSI H / f: CUP, origin-mode aware
func escapeMoveCursor(t *Terminal, msg string) {
	row, col := 1, 1
	if msg != "" {
		parts := strings.SplitN(msg, ";", 2)
		row = param(parts[0], 1)
		if len(parts) == 2 {
			col = param(parts[1], 1)
		}
	}
	if t.scr.originMode {
		t.scr.moveCursorTo(t.scr.scrollTop+row-1, col-1)
	} else {
		t.scr.moveCursorTo(row-1, col-1)
	}
}

func escapeModeOn(t *Terminal, msg string) {
	if strings.HasPrefix(msg, "?") {
		escapePrivateMode(t, msg[1:], true)
		return
	}
	escapeMode(t, msg, true)
}

func escapeModeOff(t *Terminal, msg string) {
	if strings.HasPrefix(msg, "?") {
		escapePrivateMode(t, msg[1:], false)
		return
	}
	escapeMode(t, msg, false)
}

// escapePrivateMode handles DECSET/DECRST (CSI ? ... h/l).
func escapePrivateMode(t *Terminal, msg string, enable bool) {
	for _, mode := range strings.Split(msg, ";") {
		switch mode {
		case "1": // DECCKM: application cursor keys
			t.scr.appCursorKeys = enable
		case "6": // DECOM: origin mode, cursor homes on change
			t.scr.originMode = enable
			if enable {
				t.scr.moveCursorTo(t.scr.scrollTop, 0)
			} else {
				t.scr.moveCursorTo(0, 0)
			}
		case "7": // DECAWM: autowrap
			t.scr.autoWrap = enable
			t.scr.wrapPending = false
		case "20": // LNM via private prefix, some terminfo entries do this
			t.scr.newLineMode = enable
		case "25": // DECTCEM: cursor visibility
			t.scr.cursorVisible = enable
		case "47": // alternate screen, no cursor save
			if enable {
				t.scr.enterAlt(false)
			} else {
				t.scr.exitAlt(false)
			}
		case "1048": // save/restore cursor only
			if enable {
				t.scr.stashRow, t.scr.stashCol = t.scr.cursorRow, t.scr.cursorCol
			} else {
				t.scr.moveCursorTo(t.scr.stashRow, t.scr.stashCol)
			}
		case "1049": // alternate screen with cursor save
			if enable {
				t.scr.enterAlt(true)
			} else {
				t.scr.exitAlt(true)
			}
		case "2004":
			t.scr.bracketedPaste = enable
		case "12": // cursor blink, not modelled
		default:
			if t.debug {
				m := "l"
				if enable {
					m = "h"
				}
				log.Println("Unknown private escape code", fmt.Sprintf("?%s%s", mode, m))
			}
		}
	}
}

// escapeMode handles standard SM/RM (without the DEC private '?' prefix).
func escapeMode(t *Terminal, msg string, enable bool) {
	for _, mode := range strings.Split(msg, ";") {
		switch mode {
		case "4": // IRM: insert/replace
			t.scr.insertMode = enable
		case "20": // LNM: newline mode
			t.scr.newLineMode = enable
		default:
			if t.debug {
				m := "l"
				if enable {
					m = "h"
				}
				log.Println("Unknown SM/RM code", mode+m)
			}
		}
	}
}

func escapeSaveCursor(t *Terminal, _ string) {
	t.scr.saveCursor()
}

func escapeRestoreCursor(t *Terminal, msg string) {
	if msg != "" {
		if t.debug {
			log.Println("Corrupt restore cursor escape", msg+"u")
		}
		return
	}
	t.scr.restoreCursor()
}

// CSI r: DECSTBM
func escapeSetScrollArea(t *Terminal, msg string) {
	top, bottom := 0, 0
	parts := strings.SplitN(msg, ";", 2)
	if parts[0] != "" {
		top, _ = strconv.Atoi(parts[0])
	}
	if len(parts) == 2 && parts[1] != "" {
		bottom, _ = strconv.Atoi(parts[1])
	}
	t.scr.setMargins(top, bottom)
}

func escapeScrollUp(t *Terminal, msg string) {
	t.scr.scrollUp(param(msg, 1))
}

func escapeScrollDown(t *Terminal, msg string) {
	t.scr.scrollDown(param(msg, 1))
}

// CSI g: TBC. 0 clears the stop at the cursor, 3 clears all.
func escapeTabClear(t *Terminal, msg string) {
	switch param(msg, 0) {
	case 3:
		t.scr.clearAllTabStops()
	default:
		t.scr.clearTabStop()
	}
}

// escapeDeviceStatusReport handles CSI ... n queries. 5n reports status,
// 6n the cursor position, both written back to the child.
func escapeDeviceStatusReport(t *Terminal, msg string) {
	switch msg {
	case "5":
		t.reply([]byte("\x1b[0n"))
	case "6":
		t.reply([]byte(fmt.Sprintf("\x1b[%d;%dR", t.scr.cursorRow+1, t.scr.cursorCol+1)))
	default:
		if t.debug {
			log.Println("Unhandled DSR", msg)
		}
	}
}

func escapeDeviceAttribute(t *Terminal, code string) {
	if strings.HasPrefix(code, ">") {
		// DA2: identify terminal type/version
		t.reply([]byte("\x1b[>0;115;0c"))
		return
	}
	// DA1: report VT220-class
	t.reply([]byte("\x1b[?6c"))
}

// CSI ! p: DECSTR soft reset. Modes and pen reset, grid contents stay.
func escapeSoftReset(t *Terminal, msg string) {
	if strings.TrimSpace(msg) != "!" {
		return
	}
	t.scr.resetModes()
	t.g0Charset = charSetANSI
	t.g1Charset = charSetANSI
	t.useG1CharSet = false
	t.scr.moveCursorTo(0, 0)
}

// CSI Ps SP q: DECSCUSR cursor style, consumed but not modelled
func escapeCursorStyle(t *Terminal, msg string) {
	_ = msg
}

// escapeWindowManipulation handles the xterm window-report extensions the
// shell ecosystem actually uses.
func escapeWindowManipulation(t *Terminal, msg string) {
	parts := strings.Split(msg, ";")
	command, err := strconv.Atoi(parts[0])
	if err != nil {
		if t.debug {
			log.Println("Invalid window manipulation command:", msg)
		}
		return
	}

	switch command {
	case 18:
		// report size in characters: CSI 8 ; rows ; cols t
		t.reply([]byte(fmt.Sprintf("\x1b[8;%d;%dt", t.scr.rows, t.scr.cols)))
	case 14:
		// report size in pixels; a synthetic size keeps probes happy
		t.reply([]byte("\x1b[4;600;800t"))
	default:
		if t.debug {
			log.Println("Unsupported window manipulation command:", command)
		}
	}
}

func escapePrinterMode(t *Terminal, code string) {
	switch code {
	case "5":
		t.state.printing = true
	case "4":
		t.state.printing = false
		if t.printData != nil {
			if t.printer != nil {
				t.printer.Print(t.printData)
			} else if t.debug {
				log.Println("Print data was received but no printer has been set")
			}
		}
		t.printData = nil
	default:
		if t.debug {
			log.Println("Unknown printer mode", code)
		}
	}
}
