package terminal

// screen is the per-pane grid model mutated by the escape interpreter and
// read by the host through Terminal.Snapshot. It is not safe for concurrent
// use; the engine serializes all access.
type screen struct {
	cols, rows int

	lines      [][]Cell // active grid
	savedLines [][]Cell // primary grid, stashed while the alternate is active
	altActive  bool

	cursorRow, cursorCol int
	cursorVisible        bool
	wrapPending          bool

	pen Cell // template for newly written cells; Rune is ignored

	savedRow, savedCol int
	savedPen           Cell

	// cursor stash used by DECSET 1048/1049
	stashRow, stashCol int

	scrollTop, scrollBottom int

	autoWrap       bool
	originMode     bool
	appCursorKeys  bool
	bracketedPaste bool
	insertMode     bool
	newLineMode    bool

	tabStops map[int]bool

	history *scrollback
}

func newScreen(cols, rows, historyLimit int) *screen {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	s := &screen{
		cols:          cols,
		rows:          rows,
		cursorVisible: true,
		autoWrap:      true,
		scrollBottom:  rows - 1,
		tabStops:      make(map[int]bool),
		history:       newScrollback(historyLimit),
	}
	s.lines = blankGrid(cols, rows)
	for i := 0; i < cols; i += tabWidth {
		s.tabStops[i] = true
	}
	return s
}

func blankGrid(cols, rows int) [][]Cell {
	g := make([][]Cell, rows)
	for i := range g {
		g[i] = blankRow(cols)
	}
	return g
}

func blankRow(cols int) []Cell {
	r := make([]Cell, cols)
	for i := range r {
		r[i] = blankCell
	}
	return r
}

// penBlank is the erase fill: a space carrying the current colors.
func (s *screen) penBlank() Cell {
	return Cell{Rune: ' ', FG: s.pen.FG, BG: s.pen.BG}
}

func (s *screen) penBlankRow() []Cell {
	b := s.penBlank()
	r := make([]Cell, s.cols)
	for i := range r {
		r[i] = b
	}
	return r
}

// writeRune places r at the cursor, honoring deferred wrap, insert mode and
// the rune's column footprint.
func (s *screen) writeRune(r rune) {
	w := cellWidth(r)
	if w > s.cols {
		// a wide rune cannot fit a one-column grid at all; draw it
		// narrow rather than index outside the row
		w = s.cols
	}
	if s.wrapPending {
		s.wrapPending = false
		if s.autoWrap {
			s.cursorCol = 0
			s.lineFeed(false)
		}
	}
	if s.cursorCol+w > s.cols {
		if s.autoWrap {
			s.cursorCol = 0
			s.lineFeed(false)
		} else {
			s.cursorCol = s.cols - w
		}
	}

	row := s.lines[s.cursorRow]
	if s.insertMode {
		copy(row[s.cursorCol+w:], row[s.cursorCol:])
	}
	c := s.pen
	c.Rune = r
	row[s.cursorCol] = c
	if w == 2 {
		cont := s.pen
		cont.Rune = 0
		row[s.cursorCol+1] = cont
	}

	if s.cursorCol+w >= s.cols {
		if s.autoWrap {
			s.wrapPending = true
			s.cursorCol = s.cols - 1
		}
	} else {
		s.cursorCol += w
	}
}

// moveCursorTo clamps the target into the grid. Explicit motion clears a
// pending wrap, per xterm deferred-wrap rules.
func (s *screen) moveCursorTo(row, col int) {
	s.wrapPending = false
	if row < 0 {
		row = 0
	} else if row >= s.rows {
		row = s.rows - 1
	}
	if col < 0 {
		col = 0
	} else if col >= s.cols {
		col = s.cols - 1
	}
	s.cursorRow, s.cursorCol = row, col
}

// cursorUp stops at the top margin when the cursor starts inside the
// scroll region, otherwise at the grid edge. A cursor above the region must
// never be pulled down onto it.
func (s *screen) cursorUp(n int) {
	s.wrapPending = false
	limit := 0
	if s.cursorRow >= s.scrollTop {
		limit = s.scrollTop
	}
	s.cursorRow -= n
	if s.cursorRow < limit {
		s.cursorRow = limit
	}
}

func (s *screen) cursorDown(n int) {
	s.wrapPending = false
	limit := s.rows - 1
	if s.cursorRow <= s.scrollBottom {
		limit = s.scrollBottom
	}
	s.cursorRow += n
	if s.cursorRow > limit {
		s.cursorRow = limit
	}
}

func (s *screen) cursorForward(n int) {
	s.wrapPending = false
	s.cursorCol += n
	if s.cursorCol >= s.cols {
		s.cursorCol = s.cols - 1
	}
}

func (s *screen) cursorBack(n int) {
	s.wrapPending = false
	s.cursorCol -= n
	if s.cursorCol < 0 {
		s.cursorCol = 0
	}
}

func (s *screen) carriageReturn() {
	s.wrapPending = false
	s.cursorCol = 0
}

func (s *screen) backspace() {
	s.wrapPending = false
	if s.cursorCol > 0 {
		s.cursorCol--
	}
}

// lineFeed moves the cursor down one row, scrolling the region when the
// cursor sits on the bottom margin. When newline is set the cursor also
// returns to column 0 (LNM).
func (s *screen) lineFeed(newline bool) {
	if s.cursorRow == s.scrollBottom {
		s.scrollUp(1)
	} else if s.cursorRow < s.rows-1 {
		s.cursorRow++
	}
	if newline || s.newLineMode {
		s.cursorCol = 0
	}
}

// index is ESC D: line feed without the LNM column reset.
func (s *screen) index() {
	if s.cursorRow == s.scrollBottom {
		s.scrollUp(1)
	} else if s.cursorRow < s.rows-1 {
		s.cursorRow++
	}
}

// reverseIndex is ESC M: cursor up, scrolling down at the top margin.
func (s *screen) reverseIndex() {
	if s.cursorRow == s.scrollTop {
		s.scrollDown(1)
	} else if s.cursorRow > 0 {
		s.cursorRow--
	}
}

func (s *screen) tab() {
	s.wrapPending = false
	for col := s.cursorCol + 1; col < s.cols; col++ {
		if s.tabStops[col] {
			s.cursorCol = col
			return
		}
	}
	s.cursorCol = s.cols - 1
}

func (s *screen) setTabStop() {
	s.tabStops[s.cursorCol] = true
}

func (s *screen) clearTabStop() {
	delete(s.tabStops, s.cursorCol)
}

func (s *screen) clearAllTabStops() {
	s.tabStops = make(map[int]bool)
}

// scrollUp shifts the scroll region contents up by n rows. Rows leaving the
// top of the primary grid are appended to scrollback, but only when the
// region includes the top row and the alternate screen is not active.
func (s *screen) scrollUp(n int) {
	if n < 1 {
		return
	}
	region := s.scrollBottom - s.scrollTop + 1
	if n > region {
		n = region
	}
	record := !s.altActive && s.scrollTop == 0
	for i := 0; i < n; i++ {
		if record {
			s.history.push(s.lines[s.scrollTop])
		}
		copy(s.lines[s.scrollTop:s.scrollBottom+1], s.lines[s.scrollTop+1:s.scrollBottom+1])
		s.lines[s.scrollBottom] = s.penBlankRow()
	}
}

// scrollDown shifts the scroll region contents down by n rows. Nothing is
// recorded to scrollback.
func (s *screen) scrollDown(n int) {
	if n < 1 {
		return
	}
	region := s.scrollBottom - s.scrollTop + 1
	if n > region {
		n = region
	}
	for i := 0; i < n; i++ {
		copy(s.lines[s.scrollTop+1:s.scrollBottom+1], s.lines[s.scrollTop:s.scrollBottom])
		// copy aliases the slice of rows, so re-make the top row rather
		// than reuse the shifted one
		s.lines[s.scrollTop] = s.penBlankRow()
	}
}

// setMargins defines the scroll region from 1-based coordinates, 0 meaning
// the respective edge. Invalid regions are ignored. The cursor homes.
func (s *screen) setMargins(top, bottom int) {
	if top <= 0 {
		top = 1
	}
	if bottom <= 0 || bottom > s.rows {
		bottom = s.rows
	}
	if top >= bottom {
		return
	}
	s.scrollTop = top - 1
	s.scrollBottom = bottom - 1
	s.moveCursorTo(s.scrollTop, 0)
}

func (s *screen) saveCursor() {
	s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
	s.savedPen = s.pen
}

func (s *screen) restoreCursor() {
	s.pen = s.savedPen
	s.moveCursorTo(s.savedRow, s.savedCol)
}

// eraseInDisplay implements ED: 0 cursor-to-end, 1 start-to-cursor,
// 2 entire screen, 3 entire screen plus scrollback.
func (s *screen) eraseInDisplay(mode int) {
	b := s.penBlank()
	switch mode {
	case 0:
		s.eraseInLine(0)
		for row := s.cursorRow + 1; row < s.rows; row++ {
			fillRow(s.lines[row], b)
		}
	case 1:
		s.eraseInLine(1)
		for row := 0; row < s.cursorRow; row++ {
			fillRow(s.lines[row], b)
		}
	case 2:
		for row := 0; row < s.rows; row++ {
			fillRow(s.lines[row], b)
		}
	case 3:
		for row := 0; row < s.rows; row++ {
			fillRow(s.lines[row], b)
		}
		s.history.clear()
	}
}

// eraseInLine implements EL: 0 cursor-to-end, 1 start-to-cursor, 2 entire.
func (s *screen) eraseInLine(mode int) {
	row := s.lines[s.cursorRow]
	b := s.penBlank()
	switch mode {
	case 0:
		for col := s.cursorCol; col < s.cols; col++ {
			row[col] = b
		}
	case 1:
		for col := 0; col <= s.cursorCol && col < s.cols; col++ {
			row[col] = b
		}
	case 2:
		fillRow(row, b)
	}
}

// eraseChars overwrites n cells from the cursor with blanks (ECH).
func (s *screen) eraseChars(n int) {
	row := s.lines[s.cursorRow]
	b := s.penBlank()
	for i := 0; i < n && s.cursorCol+i < s.cols; i++ {
		row[s.cursorCol+i] = b
	}
}

// deleteChars removes n cells at the cursor, shifting the remainder of the
// row left and blank-filling the tail (DCH).
func (s *screen) deleteChars(n int) {
	row := s.lines[s.cursorRow]
	if n > s.cols-s.cursorCol {
		n = s.cols - s.cursorCol
	}
	copy(row[s.cursorCol:], row[s.cursorCol+n:])
	b := s.penBlank()
	for col := s.cols - n; col < s.cols; col++ {
		row[col] = b
	}
}

// insertChars shifts the row right from the cursor by n cells, inserting
// blanks (ICH).
func (s *screen) insertChars(n int) {
	row := s.lines[s.cursorRow]
	if n > s.cols-s.cursorCol {
		n = s.cols - s.cursorCol
	}
	copy(row[s.cursorCol+n:], row[s.cursorCol:])
	b := s.penBlank()
	for i := 0; i < n; i++ {
		row[s.cursorCol+i] = b
	}
}

// insertLines shifts rows from the cursor to the bottom margin down by n,
// inserting blank rows (IL). No effect outside the scroll region.
func (s *screen) insertLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	if n > s.scrollBottom-s.cursorRow+1 {
		n = s.scrollBottom - s.cursorRow + 1
	}
	for row := s.scrollBottom; row >= s.cursorRow+n; row-- {
		s.lines[row] = s.lines[row-n]
	}
	for row := s.cursorRow; row < s.cursorRow+n; row++ {
		s.lines[row] = s.penBlankRow()
	}
}

// deleteLines shifts rows below the cursor up by n within the scroll
// region, blank-filling the bottom (DL).
func (s *screen) deleteLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	if n > s.scrollBottom-s.cursorRow+1 {
		n = s.scrollBottom - s.cursorRow + 1
	}
	for row := s.cursorRow; row <= s.scrollBottom-n; row++ {
		s.lines[row] = s.lines[row+n]
	}
	for row := s.scrollBottom - n + 1; row <= s.scrollBottom; row++ {
		s.lines[row] = s.penBlankRow()
	}
}

// enterAlt switches to the alternate grid, stashing the primary. The
// alternate starts blank and never feeds scrollback.
func (s *screen) enterAlt(saveCursor bool) {
	if s.altActive {
		return
	}
	if saveCursor {
		s.stashRow, s.stashCol = s.cursorRow, s.cursorCol
	}
	s.savedLines = s.lines
	s.lines = blankGrid(s.cols, s.rows)
	s.altActive = true
	s.moveCursorTo(0, 0)
}

// exitAlt restores the primary grid stashed by enterAlt.
func (s *screen) exitAlt(restoreCursor bool) {
	if !s.altActive {
		return
	}
	s.lines = s.savedLines
	s.savedLines = nil
	s.altActive = false
	if restoreCursor {
		s.moveCursorTo(s.stashRow, s.stashCol)
	}
}

// resize applies the reflow policy: rows are truncated or space-padded to
// the new width, excess rows are dropped from the bottom, missing rows are
// appended blank, and the cursor is clamped into the new bounds. It never
// fails and never leaves a row of mismatched width.
func (s *screen) resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols == s.cols && rows == s.rows {
		return
	}

	s.lines = resizeGrid(s.lines, cols, rows)
	if s.savedLines != nil {
		s.savedLines = resizeGrid(s.savedLines, cols, rows)
	}

	oldCols, oldRows := s.cols, s.rows
	s.cols, s.rows = cols, rows
	s.wrapPending = false

	if s.scrollBottom >= rows || s.scrollBottom == oldRows-1 {
		s.scrollBottom = rows - 1
	}
	if s.scrollTop >= s.scrollBottom {
		s.scrollTop = 0
	}

	// default stops for newly revealed columns; existing columns keep
	// whatever HTS/TBC left them with
	for col := oldCols + (tabWidth-oldCols%tabWidth)%tabWidth; col < cols; col += tabWidth {
		s.tabStops[col] = true
	}

	s.moveCursorTo(s.cursorRow, s.cursorCol)
	if s.savedRow >= rows {
		s.savedRow = rows - 1
	}
	if s.savedCol >= cols {
		s.savedCol = cols - 1
	}
	if s.stashRow >= rows {
		s.stashRow = rows - 1
	}
	if s.stashCol >= cols {
		s.stashCol = cols - 1
	}
}

func resizeGrid(g [][]Cell, cols, rows int) [][]Cell {
	out := make([][]Cell, rows)
	for i := 0; i < rows; i++ {
		row := blankRow(cols)
		if i < len(g) {
			copy(row, g[i])
		}
		out[i] = row
	}
	return out
}

func fillRow(row []Cell, c Cell) {
	for i := range row {
		row[i] = c
	}
}

// resetModes returns every mode flag and the pen to power-on defaults
// without touching grid contents (used by DECSTR).
func (s *screen) resetModes() {
	s.autoWrap = true
	s.wrapPending = false
	s.originMode = false
	s.appCursorKeys = false
	s.bracketedPaste = false
	s.insertMode = false
	s.newLineMode = false
	s.cursorVisible = true
	s.pen = Cell{}
	s.scrollTop = 0
	s.scrollBottom = s.rows - 1
}
