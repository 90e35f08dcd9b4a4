package radio

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// ImageSize is the length of both the write image and the read image.
// The chip has no register addressing: every transfer moves all five bytes.
const ImageSize = 5

// maxPLL is the largest value the 14 bit PLL word can hold.
const maxPLL = 0x3FFF

// Write image layout. Bits are numbered 7 (MSB) to 0 inside each byte.
//
//	byte 0: MUTE SM PLL13..PLL8
//	byte 1: PLL7..PLL0
//	byte 2: SUD SSL1 SSL0 HLSI MS MR ML SWP1
//	byte 3: SWP2 STBY BL XTAL SMUTE HCC SNC SI
//	byte 4: PLLREF DTC (unused bits are written as zero)
const (
	bitMute     = 7
	bitSearch   = 6
	bitSUD      = 7
	shiftSSL    = 5
	bitHLSI     = 4
	bitMono     = 3
	bitMuteR    = 2
	bitMuteL    = 1
	bitSWP1     = 0
	bitSWP2     = 7
	bitStandby  = 6
	bitBand     = 5
	bitXTAL     = 4
	bitSoftMute = 3
	bitHCC      = 2
	bitSNC      = 1
	bitSI       = 0
	bitPLLREF   = 7
	bitDTC      = 6
)

// Read image layout.
//
//	byte 0: RF BLF PLL13..PLL8
//	byte 1: PLL7..PLL0
//	byte 2: STEREO IF6..IF0
//	byte 3: LEV3..LEV0 CI3..CI1 0
//	byte 4: reserved
const (
	bitReady     = 7
	bitBandLimit = 6
	bitStereo    = 7
	maskIF       = 0x7F
	shiftLevel   = 4
	shiftChipID  = 1
	maskChipID   = 0x07
)

// Mode selects normal tuning or the automatic search.
type Mode uint8

// Modes.
const (
	ModeNormal Mode = 0x00
	ModeSearch Mode = 0x01
)

// SearchDirection is the direction of the automatic search.
type SearchDirection uint8

// Search directions.
const (
	SearchDown SearchDirection = 0x00
	SearchUp   SearchDirection = 0x01
)

// StopLevel is the level ADC threshold the chip itself uses to stop a search.
type StopLevel uint8

// Stop levels. The value 0 is not allowed by the chip in search mode and is
// rejected everywhere.
const (
	StopLevelLow  StopLevel = 0x01 // level ADC output 5
	StopLevelMid  StopLevel = 0x02 // level ADC output 7
	StopLevelHigh StopLevel = 0x03 // level ADC output 10
)

// Injection is the side of the local oscillator relative to the tuned RF.
type Injection uint8

// Injection sides.
const (
	InjectionLowSide  Injection = 0x00
	InjectionHighSide Injection = 0x01
)

// OutputMode forces mono output or allows stereo.
type OutputMode uint8

// Output modes.
const (
	OutputStereo OutputMode = 0x00
	OutputMono   OutputMode = 0x01
)

// Level is the output level of a software programmable port.
type Level uint8

// Port levels.
const (
	LevelLow  Level = 0x00
	LevelHigh Level = 0x01
)

// Band selects the FM band limits.
type Band uint8

// Bands.
const (
	BandUSEurope Band = 0x00
	BandJapan    Band = 0x01
)

// DeEmphasis is the de-emphasis time constant.
type DeEmphasis uint8

// De-emphasis time constants.
const (
	DeEmphasis50us DeEmphasis = 0x00
	DeEmphasis75us DeEmphasis = 0x01
)

// Clock is the reference clock the PLL runs from. Bit 0 maps to XTAL and
// bit 1 to PLLREF; the combination XTAL=1 PLLREF=1 does not exist.
type Clock uint8

// Clocks.
const (
	Clock13MHz    Clock = 0x00
	Clock32768Hz  Clock = 0x01
	Clock6500kHz  Clock = 0x02
	clockBitXTAL        = 0x01
	clockBitPLLREF      = 0x02
)

// Reception is the stereo indication reported by the chip.
type Reception uint8

// Receptions.
const (
	ReceptionMono   Reception = 0x00
	ReceptionStereo Reception = 0x01
)

func (m Mode) valid() bool            { return m <= ModeSearch }
func (d SearchDirection) valid() bool { return d <= SearchUp }
func (l StopLevel) valid() bool       { return l >= StopLevelLow && l <= StopLevelHigh }
func (s Injection) valid() bool       { return s <= InjectionHighSide }
func (o OutputMode) valid() bool      { return o <= OutputMono }
func (l Level) valid() bool           { return l <= LevelHigh }
func (b Band) valid() bool            { return b <= BandJapan }
func (e DeEmphasis) valid() bool      { return e <= DeEmphasis75us }
func (c Clock) valid() bool           { return c <= Clock6500kHz }

// Settings is the typed form of the 5 byte write image.
type Settings struct {
	Mute                   bool
	Mode                   Mode
	PLL                    uint16
	SearchDirection        SearchDirection
	StopLevel              StopLevel
	Injection              Injection
	Output                 OutputMode
	RightMute              bool
	LeftMute               bool
	Port1                  Level
	Port2                  Level
	Standby                bool
	Band                   Band
	SoftMute               bool
	HighCutControl         bool
	StereoNoiseCancelling  bool
	Port1AsSearchIndicator bool
	DeEmphasis             DeEmphasis
	Clock                  Clock
}

// DefaultSettings returns the settings applied by Start when the
// configuration does not provide any.
func DefaultSettings() Settings {
	return Settings{
		Mode:                   ModeNormal,
		SearchDirection:        SearchUp,
		StopLevel:              StopLevelMid,
		Injection:              InjectionHighSide,
		Output:                 OutputStereo,
		Port1:                  LevelLow,
		Port2:                  LevelLow,
		Band:                   BandUSEurope,
		HighCutControl:         true,
		StereoNoiseCancelling:  true,
		Port1AsSearchIndicator: true,
		DeEmphasis:             DeEmphasis50us,
		Clock:                  Clock32768Hz,
	}
}

// Validate checks every field against its documented set.
func (s Settings) Validate() error {
	switch {
	case !s.Mode.valid():
		return invalidParameter("mode %d", s.Mode)
	case s.PLL > maxPLL:
		return invalidParameter("pll 0x%04X > 0x3FFF", s.PLL)
	case !s.SearchDirection.valid():
		return invalidParameter("search direction %d", s.SearchDirection)
	case !s.StopLevel.valid():
		return invalidParameter("search stop level %d", s.StopLevel)
	case !s.Injection.valid():
		return invalidParameter("side injection %d", s.Injection)
	case !s.Output.valid():
		return invalidParameter("output mode %d", s.Output)
	case !s.Port1.valid():
		return invalidParameter("port1 level %d", s.Port1)
	case !s.Port2.valid():
		return invalidParameter("port2 level %d", s.Port2)
	case !s.Band.valid():
		return invalidParameter("band %d", s.Band)
	case !s.DeEmphasis.valid():
		return invalidParameter("de-emphasis %d", s.DeEmphasis)
	case !s.Clock.valid():
		return invalidParameter("clock %d", s.Clock)
	}
	return nil
}

// Encode packs the settings into the write image.
func (s Settings) Encode() ([ImageSize]byte, error) {
	var buf [ImageSize]byte
	if err := s.Validate(); err != nil {
		return buf, err
	}

	buf[0] = flag(s.Mute, bitMute) |
		uint8(s.Mode)<<bitSearch |
		uint8(s.PLL>>8)&0x3F
	buf[1] = uint8(s.PLL & 0xFF)
	buf[2] = uint8(s.SearchDirection)<<bitSUD |
		uint8(s.StopLevel)<<shiftSSL |
		uint8(s.Injection)<<bitHLSI |
		uint8(s.Output)<<bitMono |
		flag(s.RightMute, bitMuteR) |
		flag(s.LeftMute, bitMuteL) |
		uint8(s.Port1)<<bitSWP1
	buf[3] = uint8(s.Port2)<<bitSWP2 |
		flag(s.Standby, bitStandby) |
		uint8(s.Band)<<bitBand |
		uint8(s.Clock&clockBitXTAL)<<bitXTAL |
		flag(s.SoftMute, bitSoftMute) |
		flag(s.HighCutControl, bitHCC) |
		flag(s.StereoNoiseCancelling, bitSNC) |
		flag(s.Port1AsSearchIndicator, bitSI)
	buf[4] = uint8(s.Clock&clockBitPLLREF)>>1<<bitPLLREF |
		uint8(s.DeEmphasis)<<bitDTC

	return buf, nil
}

// DecodeSettings unpacks a write image. It fails on the reserved clock
// combination and on a zero search stop level.
func DecodeSettings(buf [ImageSize]byte) (Settings, error) {
	s := Settings{
		Mute:                   bit(buf[0], bitMute),
		Mode:                   Mode(buf[0] >> bitSearch & 0x01),
		PLL:                    uint16(buf[0]&0x3F)<<8 | uint16(buf[1]),
		SearchDirection:        SearchDirection(buf[2] >> bitSUD & 0x01),
		StopLevel:              StopLevel(buf[2] >> shiftSSL & 0x03),
		Injection:              Injection(buf[2] >> bitHLSI & 0x01),
		Output:                 OutputMode(buf[2] >> bitMono & 0x01),
		RightMute:              bit(buf[2], bitMuteR),
		LeftMute:               bit(buf[2], bitMuteL),
		Port1:                  Level(buf[2] >> bitSWP1 & 0x01),
		Port2:                  Level(buf[3] >> bitSWP2 & 0x01),
		Standby:                bit(buf[3], bitStandby),
		Band:                   Band(buf[3] >> bitBand & 0x01),
		SoftMute:               bit(buf[3], bitSoftMute),
		HighCutControl:         bit(buf[3], bitHCC),
		StereoNoiseCancelling:  bit(buf[3], bitSNC),
		Port1AsSearchIndicator: bit(buf[3], bitSI),
		DeEmphasis:             DeEmphasis(buf[4] >> bitDTC & 0x01),
		Clock:                  Clock(buf[4]>>bitPLLREF&0x01)<<1 | Clock(buf[3]>>bitXTAL&0x01),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Status is the typed form of the 5 byte read image.
type Status struct {
	Ready     bool
	BandLimit bool
	PLL       uint16
	Reception Reception
	IFCounter uint8
	Level     uint8
	ChipID    uint8

	// Frequency is derived from PLL with the injection side and clock the
	// driver has configured. It is zero when the PLL readback cannot be
	// converted.
	Frequency physic.Frequency
}

// DecodeStatus unpacks a read image. It never fails: a read issued before
// any write simply reflects whatever the chip currently holds.
func DecodeStatus(buf [ImageSize]byte) Status {
	return Status{
		Ready:     bit(buf[0], bitReady),
		BandLimit: bit(buf[0], bitBandLimit),
		PLL:       uint16(buf[0]&0x3F)<<8 | uint16(buf[1]),
		Reception: Reception(buf[2] >> bitStereo & 0x01),
		IFCounter: buf[2] & maskIF,
		Level:     buf[3] >> shiftLevel,
		ChipID:    buf[3] >> shiftChipID & maskChipID,
	}
}

// Stereo reports whether the chip indicates stereo reception.
func (s Status) Stereo() bool {
	return s.Reception == ReceptionStereo
}

// StationFrequency returns the tuned frequency, or ErrBandLimitReached when
// the chip reports that the PLL stopped at the band edge.
func (s Status) StationFrequency() (physic.Frequency, error) {
	if s.BandLimit {
		return 0, ErrBandLimitReached
	}
	return s.Frequency, nil
}

func (s Status) String() string {
	return fmt.Sprintf("ready=%t bandLimit=%t pll=0x%04X freq=%s %s level=%d if=%d",
		s.Ready, s.BandLimit, s.PLL, s.Frequency, s.Reception, s.Level, s.IFCounter)
}

func flag(v bool, pos uint) uint8 {
	if v {
		return 1 << pos
	}
	return 0
}

func bit(b uint8, pos uint) bool {
	return b>>pos&0x01 == 0x01
}

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSearch:
		return "search"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (d SearchDirection) String() string {
	switch d {
	case SearchDown:
		return "down"
	case SearchUp:
		return "up"
	}
	return fmt.Sprintf("SearchDirection(%d)", uint8(d))
}

func (l StopLevel) String() string {
	switch l {
	case StopLevelLow:
		return "low"
	case StopLevelMid:
		return "mid"
	case StopLevelHigh:
		return "high"
	}
	return fmt.Sprintf("StopLevel(%d)", uint8(l))
}

func (s Injection) String() string {
	switch s {
	case InjectionLowSide:
		return "low"
	case InjectionHighSide:
		return "high"
	}
	return fmt.Sprintf("Injection(%d)", uint8(s))
}

func (o OutputMode) String() string {
	switch o {
	case OutputStereo:
		return "stereo"
	case OutputMono:
		return "mono"
	}
	return fmt.Sprintf("OutputMode(%d)", uint8(o))
}

func (b Band) String() string {
	switch b {
	case BandUSEurope:
		return "us-europe"
	case BandJapan:
		return "japan"
	}
	return fmt.Sprintf("Band(%d)", uint8(b))
}

func (e DeEmphasis) String() string {
	switch e {
	case DeEmphasis50us:
		return "50us"
	case DeEmphasis75us:
		return "75us"
	}
	return fmt.Sprintf("DeEmphasis(%d)", uint8(e))
}

func (c Clock) String() string {
	switch c {
	case Clock13MHz:
		return "13MHz"
	case Clock32768Hz:
		return "32.768kHz"
	case Clock6500kHz:
		return "6.5MHz"
	}
	return fmt.Sprintf("Clock(%d)", uint8(c))
}

func (r Reception) String() string {
	if r == ReceptionStereo {
		return "stereo"
	}
	return "mono"
}

// ParseBand accepts the names printed by Band.String.
func ParseBand(s string) (Band, error) {
	switch strings.ToLower(s) {
	case "us-europe", "us", "europe", "eu":
		return BandUSEurope, nil
	case "japan", "jp":
		return BandJapan, nil
	}
	return 0, invalidParameter("band %q", s)
}

// ParseClock accepts the names printed by Clock.String.
func ParseClock(s string) (Clock, error) {
	switch strings.ToLower(s) {
	case "13mhz":
		return Clock13MHz, nil
	case "32.768khz", "32768hz", "32khz":
		return Clock32768Hz, nil
	case "6.5mhz":
		return Clock6500kHz, nil
	}
	return 0, invalidParameter("clock %q", s)
}

// ParseInjection accepts "low" or "high".
func ParseInjection(s string) (Injection, error) {
	switch strings.ToLower(s) {
	case "low":
		return InjectionLowSide, nil
	case "high":
		return InjectionHighSide, nil
	}
	return 0, invalidParameter("side injection %q", s)
}

// ParseStopLevel accepts "low", "mid" or "high".
func ParseStopLevel(s string) (StopLevel, error) {
	switch strings.ToLower(s) {
	case "low":
		return StopLevelLow, nil
	case "mid":
		return StopLevelMid, nil
	case "high":
		return StopLevelHigh, nil
	}
	return 0, invalidParameter("search stop level %q", s)
}

// ParseDeEmphasis accepts "50us" or "75us".
func ParseDeEmphasis(s string) (DeEmphasis, error) {
	switch strings.ToLower(s) {
	case "50us":
		return DeEmphasis50us, nil
	case "75us":
		return DeEmphasis75us, nil
	}
	return 0, invalidParameter("de-emphasis %q", s)
}
