package terminal

import "github.com/mattn/go-runewidth"

// cellWidth reports how many grid columns r occupies. All width policy is
// kept behind this one function so it can be swapped without touching the
// interpreter. Zero-width runes are treated as occupying one cell rather
// than combined with the previous cell.
func cellWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w < 1 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}
