package terminal

import "fmt"

// Key identifies a non-printing key, or KeyRune for a plain character.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Mod is a bitmask of held modifier keys.
type Mod int

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
)

// KeyEvent is one key press as delivered by the host. Rune is only
// meaningful when Key is KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Mod
}

// arrow final bytes, shared by the CSI and SS3 encodings
var arrowFinals = map[Key]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
}

// tilde-coded keys: CSI n ~
var tildeCodes = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

// SS3 finals for F1-F4
var ss3Function = map[Key]byte{
	KeyF1: 'P',
	KeyF2: 'Q',
	KeyF3: 'R',
	KeyF4: 'S',
}

// modParam maps a Mod mask to the xterm modifier parameter: 1 + shift(1) +
// alt(2) + ctrl(4).
func modParam(m Mod) int {
	p := 1
	if m&ModShift != 0 {
		p += 1
	}
	if m&ModAlt != 0 {
		p += 2
	}
	if m&ModCtrl != 0 {
		p += 4
	}
	return p
}

// encodeKey translates ev into the byte sequence a shell expects,
// consulting the application-cursor-keys mode. A nil result means the
// event has no terminal encoding.
func encodeKey(ev KeyEvent, appCursor bool) []byte {
	if final, ok := arrowFinals[ev.Key]; ok {
		if ev.Mod != 0 {
			return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam(ev.Mod), final))
		}
		if appCursor {
			return []byte{asciiEscape, 'O', final}
		}
		return []byte{asciiEscape, '[', final}
	}
	if code, ok := tildeCodes[ev.Key]; ok {
		if ev.Mod != 0 {
			return []byte(fmt.Sprintf("\x1b[%d;%d~", code, modParam(ev.Mod)))
		}
		return []byte(fmt.Sprintf("\x1b[%d~", code))
	}
	if final, ok := ss3Function[ev.Key]; ok {
		if ev.Mod != 0 {
			return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam(ev.Mod), final))
		}
		return []byte{asciiEscape, 'O', final}
	}

	switch ev.Key {
	case KeyEnter:
		return []byte{'\r'}
	case KeyTab:
		if ev.Mod&ModShift != 0 {
			return []byte{asciiEscape, '[', 'Z'}
		}
		return []byte{'\t'}
	case KeyBackspace:
		if ev.Mod&ModAlt != 0 {
			return []byte{asciiEscape, 0x7f}
		}
		return []byte{0x7f}
	case KeyEscape:
		return []byte{asciiEscape}
	}

	if ev.Key != KeyRune || ev.Rune == 0 {
		return nil
	}
	return encodeRune(ev.Rune, ev.Mod)
}

// encodeRune handles printable characters with Ctrl and Alt chords. Ctrl
// folds letters into the 0x01-0x1a range; Alt prefixes ESC.
func encodeRune(r rune, mod Mod) []byte {
	var out []byte
	if mod&ModAlt != 0 {
		out = append(out, asciiEscape)
	}
	if mod&ModCtrl != 0 {
		switch {
		case r >= 'a' && r <= 'z':
			return append(out, byte(r-'a'+1))
		case r >= 'A' && r <= 'Z':
			return append(out, byte(r-'A'+1))
		case r == ' ', r == '@':
			return append(out, 0)
		case r == '[':
			return append(out, asciiEscape)
		case r == '\\':
			return append(out, 0x1c)
		case r == ']':
			return append(out, 0x1d)
		case r == '^':
			return append(out, 0x1e)
		case r == '_', r == '/':
			return append(out, 0x1f)
		}
	}
	return append(out, []byte(string(r))...)
}

// bracketedPaste markers
var (
	pasteStart = []byte("\x1b[200~")
	pasteEnd   = []byte("\x1b[201~")
)
