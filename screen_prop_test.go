package terminal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Every row must be exactly cols wide after any output and resize.
func TestScreenProp_RowWidthInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cols := rapid.IntRange(1, 120).Draw(rt, "cols")
		rows := rapid.IntRange(1, 50).Draw(rt, "rows")
		term := New(Config{Columns: cols, Rows: rows})

		data := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(rt, "data")
		term.processOutput(data)

		newCols := rapid.IntRange(1, 120).Draw(rt, "newCols")
		newRows := rapid.IntRange(1, 50).Draw(rt, "newRows")
		term.Resize(newCols, newRows)

		snap := term.Snapshot()
		if len(snap.Cells) != newRows {
			rt.Fatalf("have %d rows, want %d", len(snap.Cells), newRows)
		}
		for i, row := range snap.Cells {
			if len(row) != newCols {
				rt.Fatalf("row %d is %d wide, want %d", i, len(row), newCols)
			}
		}
		cur := snap.Cursor
		if cur.Row < 0 || cur.Row >= newRows || cur.Col < 0 || cur.Col >= newCols {
			rt.Fatalf("cursor %d,%d outside %dx%d", cur.Row, cur.Col, newRows, newCols)
		}
	})
}

// SGR reset after any attribute soup returns the pen to the default.
func TestScreenProp_SGRResetRestoresDefaultPen(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		term := testTerm(20, 5)

		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			p := rapid.IntRange(0, 110).Draw(rt, fmt.Sprintf("sgr%d", i))
			term.processOutput([]byte(fmt.Sprintf("\x1b[%dm", p)))
		}
		term.processOutput([]byte("\x1b[0m"))

		assert.Equal(t, Cell{}, term.scr.pen)
	})
}

// Scrollback never exceeds its cap, and lines come back newest first.
func TestScreenProp_ScrollbackBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 20).Draw(rt, "limit")
		term := New(Config{Columns: 10, Rows: 2, HistoryLimit: limit})

		lines := rapid.IntRange(0, 100).Draw(rt, "lines")
		for i := 0; i < lines; i++ {
			term.processOutput([]byte(fmt.Sprintf("l%d\r\n", i)))
		}

		if got := term.ScrollbackLen(); got > limit {
			rt.Fatalf("scrollback %d exceeds limit %d", got, limit)
		}
		if term.ScrollbackLen() > 1 {
			newest := term.ScrollbackLine(0)
			older := term.ScrollbackLine(1)
			if newest == nil || older == nil {
				rt.Fatal("in-range history line was nil")
			}
		}
		assert.Nil(t, term.ScrollbackLine(term.ScrollbackLen()))
	})
}

// Shrinking then restoring the grid keeps the cursor inside bounds at
// every step.
func TestScreenProp_ResizeRoundTripCursorClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		term := testTerm(80, 24)
		row := rapid.IntRange(0, 23).Draw(rt, "row")
		col := rapid.IntRange(0, 79).Draw(rt, "col")
		term.processOutput([]byte(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1)))

		midCols := rapid.IntRange(1, 80).Draw(rt, "midCols")
		midRows := rapid.IntRange(1, 24).Draw(rt, "midRows")
		term.Resize(midCols, midRows)
		cur := term.Snapshot().Cursor
		if cur.Row >= midRows || cur.Col >= midCols {
			rt.Fatalf("cursor %d,%d escaped %dx%d", cur.Row, cur.Col, midRows, midCols)
		}

		term.Resize(80, 24)
		cur = term.Snapshot().Cursor
		if cur.Row >= 24 || cur.Col >= 80 {
			rt.Fatalf("cursor %d,%d escaped 24x80", cur.Row, cur.Col)
		}
		// if the cursor was in bounds at the intermediate size it must
		// come back to exactly where it was
		if row < midRows && col < midCols {
			if cur.Row != row || cur.Col != col {
				rt.Fatalf("cursor moved from %d,%d to %d,%d", row, col, cur.Row, cur.Col)
			}
		}
	})
}

// The interpreter must accept arbitrary bytes without panicking and end in
// a well-defined parser state.
func TestScreenProp_ArbitraryBytesNeverPanic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		term := testTerm(40, 10)
		chunks := rapid.IntRange(1, 5).Draw(rt, "chunks")
		for i := 0; i < chunks; i++ {
			data := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(rt, fmt.Sprintf("chunk%d", i))
			term.processOutput(data)
		}
	})
}
