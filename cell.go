package terminal

// ColorMode selects how the payload of a Color is interpreted.
type ColorMode uint8

const (
	// ColorModeDefault means the renderer's default foreground or background.
	ColorModeDefault ColorMode = iota
	// ColorModeStandard is an index into the 16-entry ANSI palette.
	ColorModeStandard
	// ColorMode256 is an index into the xterm 256-color palette.
	ColorMode256
	// ColorModeRGB is a direct 24-bit color.
	ColorModeRGB
)

// Color is a renderer-neutral terminal color. The zero value is the
// default color.
type Color struct {
	Mode    ColorMode
	Index   uint8
	R, G, B uint8
}

// PaletteColor returns a color referencing palette entry n. Entries 0-15
// use the ANSI palette, 16-255 the xterm cube and grayscale ramp.
func PaletteColor(n int) Color {
	if n < 0 || n > 255 {
		return Color{}
	}
	if n < 16 {
		return Color{Mode: ColorModeStandard, Index: uint8(n)}
	}
	return Color{Mode: ColorMode256, Index: uint8(n)}
}

// RGBColor returns a direct-color value.
func RGBColor(r, g, b uint8) Color {
	return Color{Mode: ColorModeRGB, R: r, G: g, B: b}
}

// IsDefault reports whether c is the default color.
func (c Color) IsDefault() bool {
	return c.Mode == ColorModeDefault
}

// Attr is a bitmask of cell style flags.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
)

// Cell is one character position of the grid. A wide rune occupies two
// cells; the trailing cell carries Rune 0 and must not be drawn.
type Cell struct {
	Rune rune
	FG   Color
	BG   Color
	Attr Attr
}

// blankCell is the default empty cell: a space with default colors and no
// style flags.
var blankCell = Cell{Rune: ' '}
