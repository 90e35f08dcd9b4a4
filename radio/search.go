package radio

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// SearchResult is what the chip reported when a search completed.
type SearchResult struct {
	Frequency physic.Frequency
	PLL       uint16
	Level     uint8
	Reception Reception

	// Polls is the number of status reads the search took.
	Polls int

	// Status is the last status read.
	Status Status
}

// Search starts the automatic search of the chip at start, going in dir,
// and stops on the first station whose level reaches level. The comparison
// against level is done by the chip; the driver polls until the chip reports
// completion.
//
// When the chip hits the band edge first, Search returns the result read at
// that point together with ErrBandLimitReached. When the chip never reports
// completion within the configured number of polls it returns
// ErrSearchTimeout.
//
// On success the found PLL word is written back in normal mode so the chip
// stays on the station. On a band limit, a timeout or a failed read the cached settings
// are put back in normal mode without a transfer, so the next write tunes
// instead of searching again. After a band limit the cache holds the PLL
// the chip stopped at, otherwise the start.
func (d *TEA5767Driver) Search(start physic.Frequency, dir SearchDirection, level StopLevel) (SearchResult, error) {
	pll, err := d.FrequencyToPLL(start)
	if err != nil {
		return SearchResult{}, err
	}

	s := d.settings
	s.PLL = pll
	s.Mode = ModeSearch
	s.SearchDirection = dir
	s.StopLevel = level
	if err = d.apply(s); err != nil {
		return SearchResult{}, err
	}
	d.debugf("Searching %s from %s, stop level %s\n", dir, start, level)

	for poll := 1; poll <= d.maxPolls; poll++ {
		d.delay(d.pollInterval)

		st, err := d.ReadConf()
		if err != nil {
			d.settle(pll)
			return SearchResult{Polls: poll}, err
		}

		// the band limit flag is only raised once the search is over
		if !st.Ready && !st.BandLimit {
			continue
		}

		res := SearchResult{
			Frequency: st.Frequency,
			PLL:       st.PLL,
			Level:     st.Level,
			Reception: st.Reception,
			Polls:     poll,
			Status:    st,
		}
		if st.BandLimit {
			d.debugf("Band limit reached at %s\n", st.Frequency)
			d.settle(st.PLL)
			return res, ErrBandLimitReached
		}

		found := d.settings
		found.PLL = st.PLL
		found.Mode = ModeNormal
		if err = d.apply(found); err != nil {
			return res, err
		}
		d.debugf("Found %s, level %d, %s\n", st.Frequency, st.Level, st.Reception)
		return res, nil
	}

	d.settle(pll)
	return SearchResult{Polls: d.maxPolls}, fmt.Errorf("%w: not ready after %d polls of %s", ErrSearchTimeout, d.maxPolls, d.pollInterval)
}

// settle leaves search mode in the cache only.
func (d *TEA5767Driver) settle(pll uint16) {
	d.settings.PLL = pll
	d.settings.Mode = ModeNormal
}

// Seek searches in dir starting 100 kHz away from the cached tuning, using
// the cached stop level. The start is clamped to the band limits.
func (d *TEA5767Driver) Seek(dir SearchDirection) (SearchResult, error) {
	if err := d.checkInited(); err != nil {
		return SearchResult{}, err
	}

	current, err := RegisterToFrequency(d.settings.PLL, d.settings.Injection, d.settings.Clock)
	if err != nil {
		return SearchResult{}, err
	}
	min, max, err := BandRange(d.settings.Band)
	if err != nil {
		return SearchResult{}, err
	}

	start := current - seekOffset
	if dir == SearchUp {
		start = current + seekOffset
	}
	if start < min {
		start = min
	}
	if start > max {
		start = max
	}

	return d.Search(start, dir, d.settings.StopLevel)
}
