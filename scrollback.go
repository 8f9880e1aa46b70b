package terminal

// scrollback is a capacity-bounded FIFO of rows evicted off the top of the
// primary grid. When full, pushing a row drops the oldest one.
type scrollback struct {
	buf  [][]Cell
	max  int
	head int // index of the oldest line
	n    int
}

func newScrollback(max int) *scrollback {
	if max < 0 {
		max = 0
	}
	return &scrollback{max: max}
}

func (s *scrollback) push(line []Cell) {
	if s.max == 0 {
		return
	}
	if s.n < s.max {
		s.buf = append(s.buf, line)
		s.n++
		return
	}
	s.buf[s.head] = line
	s.head = (s.head + 1) % s.max
}

func (s *scrollback) len() int {
	return s.n
}

// line returns the history line at the given offset, 0 being the most
// recently evicted row. Returns nil when offset is out of range.
func (s *scrollback) line(offset int) []Cell {
	if offset < 0 || offset >= s.n {
		return nil
	}
	idx := (s.head + s.n - 1 - offset) % s.max
	return s.buf[idx]
}

func (s *scrollback) clear() {
	s.buf = nil
	s.head = 0
	s.n = 0
}
