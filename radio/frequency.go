package radio

import (
	"periph.io/x/conn/v3/physic"
)

// IntermediateFrequency is the fixed IF of the chip. It is added to the RF
// frequency for high side injection and subtracted for low side injection.
const IntermediateFrequency = 225 * physic.KiloHertz

// Band limits.
const (
	USEuropeMin = 87500 * physic.KiloHertz
	USEuropeMax = 108 * physic.MegaHertz
	JapanMin    = 76 * physic.MegaHertz
	JapanMax    = 91 * physic.MegaHertz
)

// ReferenceFrequency returns the PLL comparison frequency for a clock.
// The 32.768 kHz crystal is used directly, the 13 MHz crystal and the
// 6.5 MHz external clock are both divided down to 50 kHz.
func ReferenceFrequency(clk Clock) (physic.Frequency, error) {
	switch clk {
	case Clock32768Hz:
		return 32768 * physic.Hertz, nil
	case Clock13MHz, Clock6500kHz:
		return 50 * physic.KiloHertz, nil
	}
	return 0, invalidParameter("clock %d", clk)
}

// Step returns the frequency delta of one PLL increment for a clock.
func Step(clk Clock) (physic.Frequency, error) {
	ref, err := ReferenceFrequency(clk)
	if err != nil {
		return 0, err
	}
	return ref / 4, nil
}

// BandRange returns the inclusive limits of a band.
func BandRange(band Band) (min, max physic.Frequency, err error) {
	switch band {
	case BandUSEurope:
		return USEuropeMin, USEuropeMax, nil
	case BandJapan:
		return JapanMin, JapanMax, nil
	}
	return 0, 0, invalidParameter("band %d", band)
}

// FrequencyToRegister converts an RF frequency into the PLL word:
//
//	pll = round(4 * (f ± IF) / fref)
//
// Rounding is half up, done in integer micro hertz. The frequency must lie
// inside the band, boundaries included.
func FrequencyToRegister(f physic.Frequency, band Band, side Injection, clk Clock) (uint16, error) {
	if !side.valid() {
		return 0, invalidParameter("side injection %d", side)
	}
	min, max, err := BandRange(band)
	if err != nil {
		return 0, err
	}
	ref, err := ReferenceFrequency(clk)
	if err != nil {
		return 0, err
	}
	if f < min || f > max {
		return 0, &FrequencyRangeError{Frequency: f, Band: band, Min: min, Max: max}
	}

	lo := f - IntermediateFrequency
	if side == InjectionHighSide {
		lo = f + IntermediateFrequency
	}

	pll := (4*int64(lo) + int64(ref)/2) / int64(ref)
	if pll < 0 || pll > maxPLL {
		return 0, invalidParameter("pll %d for %s out of 14 bit range", pll, f)
	}
	return uint16(pll), nil
}

// RegisterToFrequency is the exact inverse of FrequencyToRegister:
//
//	f = pll * fref / 4 ∓ IF
func RegisterToFrequency(pll uint16, side Injection, clk Clock) (physic.Frequency, error) {
	if pll > maxPLL {
		return 0, invalidParameter("pll 0x%04X > 0x3FFF", pll)
	}
	if !side.valid() {
		return 0, invalidParameter("side injection %d", side)
	}
	step, err := Step(clk)
	if err != nil {
		return 0, err
	}

	lo := physic.Frequency(pll) * step
	f := lo + IntermediateFrequency
	if side == InjectionHighSide {
		f = lo - IntermediateFrequency
	}
	if f <= 0 {
		return 0, invalidParameter("pll 0x%04X below the intermediate frequency", pll)
	}
	return f, nil
}
