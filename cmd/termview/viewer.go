package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	terminal "github.com/quill-ide/terminal"
)

type viewerConfig struct {
	Shell   string
	Term    string
	History int
	Debug   bool
}

const frameInterval = 33 * time.Millisecond

func runViewer(cfg viewerConfig) error {
	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}
	if err := scr.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer scr.Fini()

	cols, rows := scr.Size()
	term := terminal.New(terminal.Config{
		Shell:        cfg.Shell,
		Term:         cfg.Term,
		Columns:      cols,
		Rows:         rows,
		HistoryLimit: cfg.History,
		Debug:        cfg.Debug,
	})
	term.OnTitle(func(title string) {
		scr.SetTitle(title)
	})
	term.OnBell(func() {
		scr.Beep()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- term.Run(ctx)
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := scr.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-runErr:
			if err == context.Canceled {
				return nil
			}
			return err
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w, h := ev.Size()
				term.Resize(w, h)
				scr.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlQ {
					term.Exit()
					continue
				}
				if kev, ok := adaptKey(ev); ok {
					term.SendKey(kev)
				}
			case *tcell.EventPaste:
				// tcell delivers paste content as key events between
				// start and end markers; nothing to do here
			}
		case <-ticker.C:
			draw(scr, term.Snapshot())
		}
	}
}

func draw(scr tcell.Screen, snap terminal.Snapshot) {
	for row, line := range snap.Cells {
		for col, cell := range line {
			if cell.Rune == 0 {
				continue // trailing half of a wide rune
			}
			scr.SetContent(col, row, cell.Rune, nil, cellStyle(cell))
		}
	}
	if snap.Cursor.Visible {
		scr.ShowCursor(snap.Cursor.Col, snap.Cursor.Row)
	} else {
		scr.HideCursor()
	}
	scr.Show()
}

func cellStyle(cell terminal.Cell) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(adaptColor(cell.FG)).
		Background(adaptColor(cell.BG))
	a := cell.Attr
	style = style.Bold(a&terminal.AttrBold != 0).
		Dim(a&terminal.AttrDim != 0).
		Italic(a&terminal.AttrItalic != 0).
		Underline(a&terminal.AttrUnderline != 0).
		Blink(a&terminal.AttrBlink != 0).
		Reverse(a&terminal.AttrReverse != 0)
	return style
}

func adaptColor(c terminal.Color) tcell.Color {
	switch c.Mode {
	case terminal.ColorModeStandard, terminal.ColorMode256:
		return tcell.PaletteColor(int(c.Index))
	case terminal.ColorModeRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	default:
		return tcell.ColorDefault
	}
}

func adaptKey(ev *tcell.EventKey) (terminal.KeyEvent, bool) {
	var mod terminal.Mod
	if ev.Modifiers()&tcell.ModShift != 0 {
		mod |= terminal.ModShift
	}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		mod |= terminal.ModAlt
	}
	if ev.Modifiers()&tcell.ModCtrl != 0 {
		mod |= terminal.ModCtrl
	}

	keys := map[tcell.Key]terminal.Key{
		tcell.KeyEnter:      terminal.KeyEnter,
		tcell.KeyTab:        terminal.KeyTab,
		tcell.KeyBackspace:  terminal.KeyBackspace,
		tcell.KeyBackspace2: terminal.KeyBackspace,
		tcell.KeyEscape:     terminal.KeyEscape,
		tcell.KeyUp:         terminal.KeyUp,
		tcell.KeyDown:       terminal.KeyDown,
		tcell.KeyRight:      terminal.KeyRight,
		tcell.KeyLeft:       terminal.KeyLeft,
		tcell.KeyHome:       terminal.KeyHome,
		tcell.KeyEnd:        terminal.KeyEnd,
		tcell.KeyInsert:     terminal.KeyInsert,
		tcell.KeyDelete:     terminal.KeyDelete,
		tcell.KeyPgUp:       terminal.KeyPageUp,
		tcell.KeyPgDn:       terminal.KeyPageDown,
		tcell.KeyF1:         terminal.KeyF1,
		tcell.KeyF2:         terminal.KeyF2,
		tcell.KeyF3:         terminal.KeyF3,
		tcell.KeyF4:         terminal.KeyF4,
		tcell.KeyF5:         terminal.KeyF5,
		tcell.KeyF6:         terminal.KeyF6,
		tcell.KeyF7:         terminal.KeyF7,
		tcell.KeyF8:         terminal.KeyF8,
		tcell.KeyF9:         terminal.KeyF9,
		tcell.KeyF10:        terminal.KeyF10,
		tcell.KeyF11:        terminal.KeyF11,
		tcell.KeyF12:        terminal.KeyF12,
	}
	if k, ok := keys[ev.Key()]; ok {
		return terminal.KeyEvent{Key: k, Mod: mod}, true
	}
	if ev.Key() == tcell.KeyRune {
		return terminal.KeyEvent{Key: terminal.KeyRune, Rune: ev.Rune(), Mod: mod}, true
	}
	// tcell folds Ctrl+letter into control key codes; recover the letter
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		r := rune('a' + (ev.Key() - tcell.KeyCtrlA))
		return terminal.KeyEvent{Key: terminal.KeyRune, Rune: r, Mod: mod | terminal.ModCtrl}, true
	}
	return terminal.KeyEvent{}, false
}
