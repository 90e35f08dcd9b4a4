package main

import (
	"errors"
	"fmt"
	"time"

	"fmtuner/display"
	"fmtuner/radio"

	"github.com/gdamore/tcell"
	"periph.io/x/conn/v3/physic"
)

// stepSize is the manual tuning increment of the console.
const stepSize = 100 * physic.KiloHertz

var help = []string{
	"up/down  seek      left/right  step 100kHz",
	"m  mute            s  stereo/mono",
	"q  quit",
}

func clearRect(scr tcell.Screen, y, h, w int, style tcell.Style) {
	for j := y; j < y+h; j++ {
		for i := 0; i < w; i++ {
			scr.SetContent(i, j, ' ', nil, style)
		}
	}
}

func drawLines(scr tcell.Screen, x, y int, style tcell.Style, lines []string) {
	for j, line := range lines {
		for i, c := range line {
			scr.SetContent(x+i, y+j, c, nil, style)
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or done
// is closed.
func pollEvents(scr tcell.Screen, event chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := scr.PollEvent()
		if ev == nil {
			return
		}
		select {
		case event <- ev:
		case <-done:
			return
		}
	}
}

// runConsole shows the tuner status on the terminal and maps the keys to
// tuner operations until the user quits.
func runConsole(t *tuner, refresh time.Duration) error {
	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("couldn't open screen: %v", err)
	}
	if err = scr.Init(); err != nil {
		return fmt.Errorf("couldn't init screen: %v", err)
	}
	defer scr.Fini()
	scr.Clear()

	white := tcell.Color(int32(255))
	black := tcell.Color(int32(232))
	freqStyle := tcell.StyleDefault.Foreground(white).Background(black).Bold(true)
	textStyle := tcell.StyleDefault

	event := make(chan tcell.Event, 1)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(scr, event, done)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	msg := "ready"
	draw := func() {
		w, _ := scr.Size()

		st, err := t.status()
		if err != nil {
			msg = err.Error()
		}
		lines := display.StatusLines(st)

		clearRect(scr, 0, 8, w, textStyle)
		clearRect(scr, 1, 2, display.Columns+4, freqStyle)
		drawLines(scr, 2, 1, freqStyle, lines[:])
		drawLines(scr, 0, 4, textStyle, help)
		drawLines(scr, 0, 8, textStyle, []string{fmt.Sprintf("%-*s", w, msg)})
		scr.Show()
	}

	draw()
	for {
		select {
		case ev := <-event:
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				if _, resized := ev.(*tcell.EventResize); resized {
					scr.Sync()
				}
				continue
			}

			quit, err := handleKey(t, key)
			if quit {
				return nil
			}
			msg = describe(key, err)
		case <-ticker.C:
		}
		draw()
	}
}

func handleKey(t *tuner, key *tcell.EventKey) (bool, error) {
	switch key.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true, nil
	case tcell.KeyUp:
		_, err := t.seek(radio.SearchUp)
		return false, err
	case tcell.KeyDown:
		_, err := t.seek(radio.SearchDown)
		return false, err
	case tcell.KeyRight:
		_, err := t.stepBy(stepSize)
		return false, err
	case tcell.KeyLeft:
		_, err := t.stepBy(-stepSize)
		return false, err
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return true, nil
		case 'm':
			_, err := t.toggleMute()
			return false, err
		case 's':
			_, err := t.toggleMono()
			return false, err
		}
	}
	return false, nil
}

func describe(key *tcell.EventKey, err error) string {
	switch {
	case errors.Is(err, radio.ErrBandLimitReached):
		return "no station until the band limit"
	case errors.Is(err, radio.ErrSearchTimeout):
		return "search timed out"
	case err != nil:
		return err.Error()
	}
	return key.Name()
}
