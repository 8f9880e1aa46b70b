package terminal

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTerm(cols, rows int) *Terminal {
	return New(Config{Columns: cols, Rows: rows, HistoryLimit: -1})
}

func trimmed(term *Terminal) string {
	return strings.TrimRight(term.text(), "\n ")
}

func TestClearScreen(t *testing.T) {
	term := testTerm(5, 2)

	term.processOutput([]byte("Hello"))
	assert.Equal(t, "Hello", trimmed(term))

	term.handleEscape("2J")
	assert.Equal(t, "", trimmed(term))
}

// clearing the screen by scrolling content away, the method tmux uses
func TestScrollAway_Tmux(t *testing.T) {
	term := New(Config{Columns: 80, Rows: 47})

	for i := 1; i <= 40; i++ {
		lineText := "Line " + strconv.Itoa(i)
		term.processOutput([]byte("\x1b[" + strconv.Itoa(i) + ";1H" + lineText))
	}

	term.processOutput([]byte("\x1b[1;47r"))
	term.processOutput([]byte("\x1b[46S"))
	term.processOutput([]byte("\x1b[1;1H"))
	term.processOutput([]byte("\x1b[K"))
	term.processOutput([]byte("\x1b[1;48r"))
	term.processOutput([]byte("\x1b[1;1H"))
	term.processOutput([]byte("\x1b(B"))
	term.processOutput([]byte("\x1b[m"))

	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
	assert.Equal(t, "", trimmed(term))
	// the scrolled-away rows landed in history
	assert.Equal(t, 46, term.ScrollbackLen())
}

func TestScrollUp_RegionWithMargins(t *testing.T) {
	tests := map[string]struct {
		linesToAdd     int
		scrollLines    int
		expectedOutput string
	}{
		"when 5 lines added and scrolled up 4 lines, should show line 5": {
			linesToAdd:     5,
			scrollLines:    4,
			expectedOutput: "Line 5",
		},
		"scrolling the whole region away leaves it blank": {
			linesToAdd:     5,
			scrollLines:    5,
			expectedOutput: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			term := testTerm(80, 5)

			for i := 1; i <= tt.linesToAdd; i++ {
				lineText := "Line " + strconv.Itoa(i)
				term.processOutput([]byte("\x1b[" + strconv.Itoa(i) + ";1H" + lineText))
			}
			term.processOutput([]byte("\x1b[1;" + strconv.Itoa(tt.linesToAdd) + "r"))
			term.processOutput([]byte("\x1b[" + strconv.Itoa(tt.scrollLines) + "S"))

			assert.Equal(t, tt.expectedOutput, trimmed(term))
			// DECSTBM homed the cursor, SU left it in place
			assert.Equal(t, 0, term.scr.cursorRow)
			assert.Equal(t, 0, term.scr.cursorCol)
		})
	}
}

func TestInsertDeleteChars(t *testing.T) {
	term := testTerm(10, 2)

	term.processOutput([]byte("Hello"))
	assert.Equal(t, "Hello", trimmed(term))

	term.scr.moveCursorTo(0, 2)
	term.handleEscape("2@")
	assert.Equal(t, "He  llo", trimmed(term))
	term.handleEscape("3P")
	assert.Equal(t, "Helo", trimmed(term))
}

func TestEraseLine(t *testing.T) {
	term := testTerm(5, 2)

	term.processOutput([]byte("Hello"))
	term.scr.moveCursorTo(0, 2)
	term.handleEscape("K")
	assert.Equal(t, "He", trimmed(term))

	term.processOutput([]byte("\x1b[1;3Hllo"))
	term.scr.moveCursorTo(0, 2)
	term.handleEscape("1K")
	assert.Equal(t, "lo", strings.TrimLeft(trimmed(term), " "))
	assert.Equal(t, ' ', term.scr.lines[0][2].Rune)
}

func TestCursorMove(t *testing.T) {
	term := testTerm(5, 2)

	term.processOutput([]byte("Hello"))
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 4, term.scr.cursorCol)
	assert.True(t, term.scr.wrapPending)

	term.handleEscape("1;4H")
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 3, term.scr.cursorCol)
	assert.False(t, term.scr.wrapPending)

	term.handleEscape("2D")
	assert.Equal(t, 1, term.scr.cursorCol)

	term.handleEscape("2C")
	assert.Equal(t, 3, term.scr.cursorCol)

	term.handleEscape("1B")
	assert.Equal(t, 1, term.scr.cursorRow)

	term.handleEscape("1A")
	assert.Equal(t, 0, term.scr.cursorRow)
}

func TestCursorMove_Overflow(t *testing.T) {
	term := testTerm(2, 2)

	term.handleEscape("2;2H")
	assert.Equal(t, 1, term.scr.cursorRow)
	assert.Equal(t, 1, term.scr.cursorCol)

	term.handleEscape("2D")
	assert.Equal(t, 0, term.scr.cursorCol)

	term.handleEscape("5C")
	assert.Equal(t, 1, term.scr.cursorCol)

	term.handleEscape("5A")
	assert.Equal(t, 0, term.scr.cursorRow)

	term.handleEscape("4B")
	assert.Equal(t, 1, term.scr.cursorRow)

	term.handleEscape("99;99H")
	assert.Equal(t, 1, term.scr.cursorRow)
	assert.Equal(t, 1, term.scr.cursorCol)
}

func TestCSI_ECH(t *testing.T) {
	term := testTerm(10, 2)

	term.processOutput([]byte("Hello"))
	term.scr.moveCursorTo(0, 1)
	term.handleEscape("3X")
	assert.Equal(t, "H   o", trimmed(term))
}

func TestCSI_DL(t *testing.T) {
	term := testTerm(20, 3)

	term.processOutput([]byte("\x1b[1;1HA"))
	term.processOutput([]byte("\x1b[2;1HB"))
	term.processOutput([]byte("\x1b[3;1HC"))
	term.scr.moveCursorTo(0, 0)
	term.handleEscape("1M")

	assert.Equal(t, "B\nC", trimmed(term))
}

func TestCSI_IL(t *testing.T) {
	term := testTerm(20, 3)

	term.processOutput([]byte("\x1b[1;1HA"))
	term.processOutput([]byte("\x1b[2;1HB"))
	term.processOutput([]byte("\x1b[3;1HC"))
	term.scr.moveCursorTo(0, 0)
	term.handleEscape("1L")

	assert.Equal(t, "\nA\nB", trimmed(term))
}

func TestCSI_CNL_CPL(t *testing.T) {
	term := testTerm(10, 5)

	term.scr.moveCursorTo(2, 5)
	term.handleEscape("2E") // next line 2 -> row 4, col 0
	assert.Equal(t, 4, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)

	term.handleEscape("3F") // previous 3 -> row 1, col 0
	assert.Equal(t, 1, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
}

func TestCSI_HPR_VPR(t *testing.T) {
	term := testTerm(10, 5)

	term.scr.moveCursorTo(1, 1)
	term.handleEscape("3a") // HPR +3 columns
	assert.Equal(t, 4, term.scr.cursorCol)
	term.handleEscape("2e") // VPR +2 rows
	assert.Equal(t, 3, term.scr.cursorRow)
}

func TestCSI_CHA_VPA(t *testing.T) {
	term := testTerm(10, 5)

	term.scr.moveCursorTo(2, 2)
	term.handleEscape("7G")
	assert.Equal(t, 6, term.scr.cursorCol)
	assert.Equal(t, 2, term.scr.cursorRow)

	term.handleEscape("4d")
	assert.Equal(t, 3, term.scr.cursorRow)
	assert.Equal(t, 6, term.scr.cursorCol)
}

func TestDECSTBM_InvalidRegionIgnored(t *testing.T) {
	term := testTerm(10, 5)

	term.handleEscape("4;2r")
	assert.Equal(t, 0, term.scr.scrollTop)
	assert.Equal(t, 4, term.scr.scrollBottom)

	term.handleEscape("2;4r")
	assert.Equal(t, 1, term.scr.scrollTop)
	assert.Equal(t, 3, term.scr.scrollBottom)
	assert.Equal(t, 1, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
}

func TestDECSTR_SoftReset(t *testing.T) {
	term := testTerm(10, 5)

	term.scr.autoWrap = false
	term.scr.pen.Attr = AttrBold
	term.scr.originMode = true
	term.scr.cursorVisible = false
	term.useG1CharSet = true
	term.scr.setMargins(2, 4)

	term.handleEscape("!p")

	assert.True(t, term.scr.autoWrap)
	assert.Equal(t, Cell{}, term.scr.pen)
	assert.False(t, term.scr.originMode)
	assert.True(t, term.scr.cursorVisible)
	assert.False(t, term.useG1CharSet)
	assert.Equal(t, 0, term.scr.scrollTop)
	assert.Equal(t, 4, term.scr.scrollBottom)
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
}

func TestRIS_FullReset(t *testing.T) {
	term := testTerm(10, 3)

	term.processOutput([]byte("Hello\x1b[31m\x1b[?25l"))
	term.processOutput([]byte("\x1bc"))

	assert.Equal(t, "", trimmed(term))
	assert.Equal(t, Cell{}, term.scr.pen)
	assert.True(t, term.scr.cursorVisible)
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
}

func TestDCS_TmuxPassthrough(t *testing.T) {
	term := testTerm(20, 2)

	term.processOutput([]byte("Hello"))
	seq := []byte{asciiEscape, 'P'}
	seq = append(seq, []byte("tmux;WORLD")...)
	seq = append(seq, []byte{asciiEscape, '\\'}...)
	term.processOutput(seq)

	assert.Equal(t, "HelloWORLD", trimmed(term))

	// the C1 ST form terminates too
	term.processOutput([]byte("\x1bPtmux;!\xc2\x9c"))
	assert.Equal(t, "HelloWORLD!", trimmed(term))
}

func TestDCS_TmuxPassthrough_NestedEscape(t *testing.T) {
	term := testTerm(20, 2)

	// ESC doubled inside the wrapper per the tmux convention
	seq := []byte{asciiEscape, 'P'}
	seq = append(seq, []byte("tmux;\x1b\x1b[31mred")...)
	seq = append(seq, []byte{asciiEscape, '\\'}...)
	term.processOutput(seq)

	assert.Equal(t, "red", trimmed(term))
	assert.Equal(t, PaletteColor(1), term.scr.lines[0][0].FG)
}

func TestDSR_CursorPositionReport(t *testing.T) {
	term := testTerm(10, 5)
	var replies bytes.Buffer
	term.in = &replies

	term.processOutput([]byte("\x1b[3;4H\x1b[6n"))
	assert.Equal(t, "\x1b[3;4R", replies.String())

	replies.Reset()
	term.processOutput([]byte("\x1b[5n"))
	assert.Equal(t, "\x1b[0n", replies.String())
}

func TestDA_Replies(t *testing.T) {
	term := testTerm(10, 5)
	var replies bytes.Buffer
	term.in = &replies

	term.processOutput([]byte("\x1b[c"))
	assert.Equal(t, "\x1b[?6c", replies.String())

	replies.Reset()
	term.processOutput([]byte("\x1b[>c"))
	assert.Equal(t, "\x1b[>0;115;0c", replies.String())
}

func TestWindowSizeReport(t *testing.T) {
	term := testTerm(80, 24)
	var replies bytes.Buffer
	term.in = &replies

	term.processOutput([]byte("\x1b[18t"))
	assert.Equal(t, "\x1b[8;24;80t", replies.String())
}

func TestDECCKM_TogglesArrowEncoding(t *testing.T) {
	term := testTerm(10, 5)

	assert.False(t, term.scr.appCursorKeys)
	term.processOutput([]byte("\x1b[?1h"))
	assert.True(t, term.scr.appCursorKeys)
	term.processOutput([]byte("\x1b[?1l"))
	assert.False(t, term.scr.appCursorKeys)
}

func TestBracketedPasteMode(t *testing.T) {
	term := testTerm(10, 5)

	term.processOutput([]byte("\x1b[?2004h"))
	assert.True(t, term.scr.bracketedPaste)
	term.processOutput([]byte("\x1b[?2004l"))
	assert.False(t, term.scr.bracketedPaste)
}

func TestAlternateScreen(t *testing.T) {
	term := testTerm(10, 3)

	term.processOutput([]byte("primary"))
	term.processOutput([]byte("\x1b[?1049h"))
	assert.Equal(t, "", trimmed(term))

	term.processOutput([]byte("alt"))
	assert.Equal(t, "alt", trimmed(term))

	term.processOutput([]byte("\x1b[?1049l"))
	assert.Equal(t, "primary", trimmed(term))
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 7, term.scr.cursorCol)
}

func TestAlternateScreen_NoScrollback(t *testing.T) {
	term := New(Config{Columns: 10, Rows: 2})

	term.processOutput([]byte("\x1b[?47h"))
	term.processOutput([]byte("a\r\nb\r\nc\r\nd"))
	assert.Equal(t, 0, term.ScrollbackLen())

	term.processOutput([]byte("\x1b[?47l"))
	term.processOutput([]byte("\r\ne\r\nf"))
	assert.Greater(t, term.ScrollbackLen(), 0)
}

func TestSaveRestoreCursor(t *testing.T) {
	term := testTerm(10, 5)

	term.processOutput([]byte("\x1b[31m\x1b[2;3H\x1b7"))
	term.processOutput([]byte("\x1b[m\x1b[4;5H"))
	term.processOutput([]byte("\x1b8"))
	assert.Equal(t, 1, term.scr.cursorRow)
	assert.Equal(t, 2, term.scr.cursorCol)
	assert.Equal(t, PaletteColor(1), term.scr.pen.FG)

	term.processOutput([]byte("\x1b[m\x1b[1;1H\x1b[s\x1b[3;3H\x1b[u"))
	assert.Equal(t, 0, term.scr.cursorRow)
	assert.Equal(t, 0, term.scr.cursorCol)
}

func TestUnknownFinalConsumed(t *testing.T) {
	term := testTerm(10, 2)

	term.processOutput([]byte("a\x1b[12~b"))
	assert.Equal(t, "ab", trimmed(term))
	assert.Equal(t, modeGround, term.state.mode)
}

func TestIncompleteCSIAbortedByControl(t *testing.T) {
	term := testTerm(10, 2)
	rang := false
	term.OnBell(func() { rang = true })

	term.processOutput([]byte("ab"))
	term.processOutput([]byte{asciiEscape, '['})
	term.processOutput([]byte{asciiBell})

	assert.True(t, rang)
	assert.Equal(t, "ab", trimmed(term))
	assert.Equal(t, modeGround, term.state.mode)
}

func TestSplitEscapeAcrossChunks(t *testing.T) {
	term := testTerm(10, 2)

	term.processOutput([]byte("ab"))
	term.processOutput([]byte{asciiEscape})
	term.processOutput([]byte("["))
	term.processOutput([]byte("1;"))
	term.processOutput([]byte("1H"))
	term.processOutput([]byte("X"))

	assert.Equal(t, "Xb", trimmed(term))
}

func TestTabStops(t *testing.T) {
	term := testTerm(40, 2)

	term.processOutput([]byte("\tx"))
	assert.Equal(t, 9, term.scr.cursorCol)

	// clear all stops, tab goes to the last column
	term.processOutput([]byte("\x1b[3g\r\t"))
	assert.Equal(t, 39, term.scr.cursorCol)

	// set a custom stop and use it
	term.scr.moveCursorTo(0, 5)
	term.processOutput([]byte("\x1bH\r\t"))
	assert.Equal(t, 5, term.scr.cursorCol)
}

func TestHandleOutput_NewLineMode(t *testing.T) {
	tests := []struct {
		name              string
		input             string
		expectedCursorRow int
		expectedCursorCol int
		expectedNewLine   bool
		expectedText      string
	}{
		{
			name:              "single line",
			input:             "hello",
			expectedCursorRow: 0,
			expectedCursorCol: 5,
			expectedText:      "hello",
		},
		{
			name:              "default - carriage return new line",
			input:             "hello\r\nworld",
			expectedCursorRow: 1,
			expectedCursorCol: 5,
			expectedText:      "hello\nworld",
		},
		{
			name:              "default - bare new line keeps column",
			input:             "hello\nworld",
			expectedCursorRow: 1,
			expectedCursorCol: 10,
			expectedText:      "hello\n     world",
		},
		{
			name:              "enable new line mode",
			input:             "\x1b[20hhello\nworld",
			expectedCursorRow: 1,
			expectedCursorCol: 5,
			expectedNewLine:   true,
			expectedText:      "hello\nworld",
		},
		{
			name:              "enable then disable new line mode",
			input:             "\x1b[20h\x1b[20lhello\nworld",
			expectedCursorRow: 1,
			expectedCursorCol: 10,
			expectedText:      "hello\n     world",
		},
		{
			name:              "new line mode - lf vt ff",
			input:             "\x1b[20hhello\n\v\fworld",
			expectedCursorRow: 3,
			expectedCursorCol: 5,
			expectedNewLine:   true,
			expectedText:      "hello\n\n\nworld",
		},
		{
			name:              "line feed mode - lf vt ff",
			input:             "hello\n\v\fworld",
			expectedCursorRow: 3,
			expectedCursorCol: 10,
			expectedText:      "hello\n\n\n     world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := testTerm(20, 5)

			term.processOutput([]byte(tt.input))

			assert.Equal(t, tt.expectedCursorRow, term.scr.cursorRow)
			assert.Equal(t, tt.expectedCursorCol, term.scr.cursorCol)
			assert.Equal(t, tt.expectedNewLine, term.scr.newLineMode)
			assert.Equal(t, tt.expectedText, trimmed(term))
		})
	}
}

func TestCharsetEscapeSequences(t *testing.T) {
	testCases := []struct {
		input       string
		expected    string
		description string
	}{
		{
			input:       "\x1b(BHello",
			expected:    "Hello",
			description: "set G0 to ASCII charset",
		},
		{
			input:       "\x1b)BHola",
			expected:    "Hola",
			description: "set G1 to ASCII charset",
		},
		{
			input:       "\x1b(0oooo",
			expected:    "⎺⎺⎺⎺",
			description: "set G0 to DEC charset",
		},
		{
			input:       "\x1b)0\x0eoooo",
			expected:    "⎺⎺⎺⎺",
			description: "set G1 to DEC charset, SO switches to G1",
		},
		{
			input:       "\x1b)0\x0eoooo\x0fo",
			expected:    "⎺⎺⎺⎺o",
			description: "SO to G1 then SI back to G0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			term := testTerm(10, 1)
			term.processOutput([]byte(tc.input))
			assert.Equal(t, tc.expected, trimmed(term))
		})
	}
}
