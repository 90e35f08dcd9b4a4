package main

import (
	"sync"

	"fmtuner/radio"

	"periph.io/x/conn/v3/physic"
)

// tuner serializes the driver calls of the status poller and the console.
type tuner struct {
	mu sync.Mutex
	d  *radio.TEA5767Driver
}

func newTuner(d *radio.TEA5767Driver) *tuner {
	return &tuner{d: d}
}

func (t *tuner) status() (radio.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.d.ReadConf()
}

func (t *tuner) seek(dir radio.SearchDirection) (radio.SearchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.d.Seek(dir)
}

// stepBy moves the tuning by delta, wrapping around at the band edges.
func (t *tuner) stepBy(delta physic.Frequency) (physic.Frequency, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pll, err := t.d.PLL()
	if err != nil {
		return 0, err
	}
	current, err := t.d.PLLToFrequency(pll)
	if err != nil {
		return 0, err
	}
	band, err := t.d.Band()
	if err != nil {
		return 0, err
	}
	min, max, err := radio.BandRange(band)
	if err != nil {
		return 0, err
	}

	f := current + delta
	switch {
	case f > max:
		f = min
	case f < min:
		f = max
	}
	return f, t.d.SetFrequency(f)
}

func (t *tuner) toggleMute() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	muted, err := t.d.Mute()
	if err != nil {
		return false, err
	}
	return !muted, t.d.SetAudioMute(!muted)
}

func (t *tuner) toggleMono() (radio.OutputMode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mode, err := t.d.OutputMode()
	if err != nil {
		return 0, err
	}
	if mode == radio.OutputMono {
		mode = radio.OutputStereo
	} else {
		mode = radio.OutputMono
	}
	return mode, t.d.SetOutputMode(mode)
}
