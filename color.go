package terminal

import (
	"log"
	"strconv"
	"strings"
)

// handleColorEscape applies an SGR parameter list to the screen's pen.
func (t *Terminal) handleColorEscape(message string) {
	if message == "" || message == "0" {
		t.scr.pen = Cell{}
		return
	}
	if message[0] == '>' || message[0] == '?' {
		if t.debug {
			log.Println("Strange colour mode", message)
		}
		return
	}
	modes := strings.Split(message, ";")
	for i := 0; i < len(modes); i++ {
		mode := modes[i]
		if mode == "" {
			continue
		}

		if (mode == "38" || mode == "48") && i+1 < len(modes) {
			nextMode := modes[i+1]
			if nextMode == "5" && i+2 < len(modes) {
				t.handleColorModeMap(mode, modes[i+2])
				i += 2
				continue
			} else if nextMode == "2" && i+4 < len(modes) {
				t.handleColorModeRGB(mode, modes[i+2], modes[i+3], modes[i+4])
				i += 4
				continue
			}
		}
		t.handleColorMode(mode)
	}
}

func (t *Terminal) handleColorMode(modeStr string) {
	modeStr = strings.TrimSpace(modeStr)
	if modeStr == "" {
		return
	}
	// ECMA-48 colon forms like "4:3" (underline style); enable the base
	// attribute rather than choke on the parameter
	if strings.HasPrefix(modeStr, "4:") {
		t.scr.pen.Attr |= AttrUnderline
		return
	}
	if strings.Contains(modeStr, ":") {
		if t.debug {
			log.Println("Unsupported extended graphics mode", modeStr)
		}
		return
	}
	mode, err := strconv.Atoi(modeStr)
	if err != nil {
		if t.debug {
			log.Println("Ignoring non-numeric graphics mode", modeStr)
		}
		return
	}
	pen := &t.scr.pen
	switch mode {
	case 0:
		*pen = Cell{}
	case 1:
		pen.Attr |= AttrBold
	case 2:
		pen.Attr |= AttrDim
	case 3:
		pen.Attr |= AttrItalic
	case 4:
		pen.Attr |= AttrUnderline
	case 5:
		pen.Attr |= AttrBlink
	case 7:
		pen.Attr |= AttrReverse
	case 22:
		pen.Attr &^= AttrBold | AttrDim
	case 23:
		pen.Attr &^= AttrItalic
	case 24:
		pen.Attr &^= AttrUnderline
	case 25:
		pen.Attr &^= AttrBlink
	case 27:
		pen.Attr &^= AttrReverse
	case 30, 31, 32, 33, 34, 35, 36, 37:
		pen.FG = PaletteColor(mode - 30)
	case 39:
		pen.FG = Color{}
	case 40, 41, 42, 43, 44, 45, 46, 47:
		pen.BG = PaletteColor(mode - 40)
	case 49:
		pen.BG = Color{}
	case 90, 91, 92, 93, 94, 95, 96, 97:
		pen.FG = PaletteColor(mode - 90 + 8)
	case 100, 101, 102, 103, 104, 105, 106, 107:
		pen.BG = PaletteColor(mode - 100 + 8)
	default:
		if t.debug {
			log.Println("Unsupported graphics mode", mode)
		}
	}
}

func (t *Terminal) handleColorModeMap(mode, ids string) {
	id, err := strconv.Atoi(ids)
	if err != nil || id < 0 || id > 255 {
		if t.debug {
			log.Println("Invalid colour map ID", ids)
		}
		return
	}
	c := PaletteColor(id)
	if mode == "38" {
		t.scr.pen.FG = c
	} else if mode == "48" {
		t.scr.pen.BG = c
	}
}

func (t *Terminal) handleColorModeRGB(mode, rs, gs, bs string) {
	r, _ := strconv.Atoi(rs)
	g, _ := strconv.Atoi(gs)
	b, _ := strconv.Atoi(bs)
	c := RGBColor(uint8(r), uint8(g), uint8(b))
	if mode == "38" {
		t.scr.pen.FG = c
	} else if mode == "48" {
		t.scr.pen.BG = c
	}
}
