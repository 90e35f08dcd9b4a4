// Package radio implements the driver for the NXP TEA5767 single chip
// FM stereo radio receiver, commonly sold on small breakout boards with a
// 32.768 kHz crystal.
//
// The chip has no register addressing: the host writes a 5 byte
// configuration image and reads back a 5 byte status image. The driver keeps
// the last written image in memory, so every setter changes one field and
// rewrites the full image in a single bus transfer.
//
// The main implementation is under the TEA5767Driver. It talks to the chip
// through a Transport: GobotTransport for gobot adaptors, PeriphTransport for
// periph.io buses, or any implementation provided by the caller.
//
// To read about the specifications of the receiver, read the following documents:
// https://www.voti.nl/docs/TEA5767.pdf
// https://www.sparkfun.com/datasheets/Wireless/General/TEA5767-Application-Note.pdf
package radio

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/i2c"
	"periph.io/x/conn/v3/physic"
)

// Address is the 7 bit i2c address of the chip.
const Address = 0x60

// Misc constants.
const (
	// DefaultFrequency is tuned by Start when the configuration has none.
	DefaultFrequency = 88 * physic.MegaHertz

	// DefaultSearchPollInterval is the delay between two status reads
	// while a search runs.
	DefaultSearchPollInterval = 200 * time.Millisecond

	// DefaultSearchMaxPolls bounds a search to about 10 seconds with the
	// default poll interval.
	DefaultSearchMaxPolls = 50

	// seekOffset moves the search start away from the current station so
	// the chip does not stop on it again.
	seekOffset = 100 * physic.KiloHertz
)

// State is the lifecycle state of a driver.
type State uint8

// States.
const (
	StateUninitialized State = iota
	StateStandby
	StateActive
	StateDeinitialized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStandby:
		return "standby"
	case StateActive:
		return "active"
	case StateDeinitialized:
		return "deinitialized"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// TEA5767Driver holds the implementation to talk to the TEA5767 receiver.
//
// A driver models one physical device. It is not safe for concurrent use:
// every operation blocks the caller until the transport returns.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
type TEA5767Driver struct {
	name       string
	connection gobot.Connection
	transport  Transport

	delay    func(time.Duration)
	debugLog func(format string, v ...interface{})
	log      func(format string, v ...interface{})

	inited   bool
	deinited bool

	settings  Settings
	initial   Settings
	frequency physic.Frequency

	pollInterval time.Duration
	maxPolls     int
}

// TEA5767Config holds the configuration needed for TEA5767Driver.
type TEA5767Config struct {
	// Frequency tuned by Start.
	Frequency physic.Frequency

	// Settings written by Start. DefaultSettings is used when nil.
	Settings *Settings

	SearchPollInterval time.Duration
	SearchMaxPolls     int

	// Delay blocks for the given duration. It is required by Init.
	// NewTEA5767Driver defaults it to time.Sleep.
	Delay func(time.Duration)

	// DebugLog receives diagnostic output. It may be nil.
	DebugLog func(format string, v ...interface{})

	// Log receives the notices of Validate and Start. It may be nil.
	Log func(format string, v ...interface{})
}

// Validate ensures that our TEA5767Driver configuration is valid and fills
// in the defaults.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
func (c *TEA5767Config) Validate() error {
	if c.Log == nil {
		c.Log = func(string, ...interface{}) {}
	}

	s := DefaultSettings()
	if c.Settings != nil {
		s = *c.Settings
	}
	c.Settings = &s
	if err := c.Settings.Validate(); err != nil {
		return err
	}

	if c.Frequency == 0 {
		c.Log("FM frequency not set, defaulting to %s\n", DefaultFrequency)
		c.Frequency = DefaultFrequency
	}
	pll, err := FrequencyToRegister(c.Frequency, c.Settings.Band, c.Settings.Injection, c.Settings.Clock)
	if err != nil {
		return err
	}
	c.Settings.PLL = pll

	if c.SearchPollInterval <= 0 {
		c.SearchPollInterval = DefaultSearchPollInterval
	}
	if c.SearchMaxPolls <= 0 {
		c.SearchMaxPolls = DefaultSearchMaxPolls
	}

	return nil
}

// New creates a driver using any Transport. The configuration is validated
// but the bus is not touched until Init.
func New(transport Transport, cfg TEA5767Config) (*TEA5767Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &TEA5767Driver{
		name:         gobot.DefaultName("TEA5767Driver"),
		transport:    transport,
		delay:        cfg.Delay,
		debugLog:     cfg.DebugLog,
		log:          cfg.Log,
		settings:     *cfg.Settings,
		initial:      *cfg.Settings,
		frequency:    cfg.Frequency,
		pollInterval: cfg.SearchPollInterval,
		maxPolls:     cfg.SearchMaxPolls,
	}, nil
}

// NewTEA5767Driver creates a new GoBot driver for our FM receiver.
func NewTEA5767Driver(connector i2c.Connector, cfg TEA5767Config, options ...func(i2c.Config)) (*TEA5767Driver, error) {
	if cfg.Delay == nil {
		cfg.Delay = time.Sleep
	}

	d, err := New(NewGobotTransport(connector, options...), cfg)
	if err != nil {
		return nil, err
	}
	if conn, ok := connector.(gobot.Connection); ok {
		d.connection = conn
	}
	return d, nil
}

// Name of our device.
func (d *TEA5767Driver) Name() string {
	return d.name
}

// SetName set the name of our device.
func (d *TEA5767Driver) SetName(name string) {
	d.name = name
}

// Connection retrieves the connection to the device, nil when the driver was
// not created from a gobot connector.
func (d *TEA5767Driver) Connection() gobot.Connection {
	return d.connection
}

// Start initializes the driver and writes the configured settings and
// frequency to the chip.
func (d *TEA5767Driver) Start() error {
	if err := d.Init(); err != nil {
		return err
	}

	d.debugf("Tuning into %s\n", d.frequency)
	if err := d.apply(d.initial); err != nil {
		if derr := d.Deinit(); derr != nil {
			return multierror.Append(err, derr)
		}
		return err
	}
	d.log("%s tuned to %s\n", d.name, d.frequency)
	return nil
}

// Halt puts the chip in standby and releases the bus.
func (d *TEA5767Driver) Halt() error {
	return d.Deinit()
}

// Init checks the capabilities and opens the bus. A failed Init leaves the
// driver uninitialized.
func (d *TEA5767Driver) Init() error {
	if d.inited {
		return nil
	}
	if d.transport == nil {
		d.debugf("tea5767: transport is nil.\n")
		return &CapabilityError{Name: "transport"}
	}
	if d.delay == nil {
		d.debugf("tea5767: delay is nil.\n")
		return &CapabilityError{Name: "delay"}
	}

	if err := d.transport.Open(); err != nil {
		d.debugf("tea5767: bus open failed.\n")
		return &TransportError{Op: "open", Err: err}
	}

	d.inited = true
	d.deinited = false
	return nil
}

// Deinit puts the chip in standby and closes the bus. The driver is left
// uninitialized even when one of the steps fails; every failure is reported.
func (d *TEA5767Driver) Deinit() error {
	if !d.inited {
		return ErrNotInitialized
	}

	var result *multierror.Error

	standby := d.settings
	standby.Standby = true
	if err := d.apply(standby); err != nil {
		result = multierror.Append(result, err)
	}

	if err := d.transport.Close(); err != nil {
		d.debugf("tea5767: bus close failed.\n")
		result = multierror.Append(result, &TransportError{Op: "close", Err: err})
	}

	d.inited = false
	d.deinited = true
	return result.ErrorOrNil()
}

// State reports the lifecycle state. An initialized driver is in standby
// when its cached image has the standby bit set.
func (d *TEA5767Driver) State() State {
	switch {
	case d.inited && d.settings.Standby:
		return StateStandby
	case d.inited:
		return StateActive
	case d.deinited:
		return StateDeinitialized
	}
	return StateUninitialized
}

// WriteConf writes the cached image to the chip.
func (d *TEA5767Driver) WriteConf() error {
	if err := d.checkInited(); err != nil {
		return err
	}
	return d.apply(d.settings)
}

// ReadConf reads and decodes the status image. The frequency of the PLL
// readback is decoded with the cached injection side and clock.
func (d *TEA5767Driver) ReadConf() (Status, error) {
	if err := d.checkInited(); err != nil {
		return Status{}, err
	}

	var buf [ImageSize]byte
	if err := d.transport.Read(buf[:]); err != nil {
		d.debugf("tea5767: read conf failed.\n")
		return Status{}, &TransportError{Op: "read conf", Err: err}
	}
	if d.debugLog != nil {
		d.debugLog("read %d bytes: %s\n", ImageSize, sliceToString(buf[:]))
	}

	st := DecodeStatus(buf)
	if f, err := RegisterToFrequency(st.PLL, d.settings.Injection, d.settings.Clock); err == nil {
		st.Frequency = f
	}
	return st, nil
}

// UpdateConf replaces the cached image without any bus transfer. Use
// WriteConf to send it.
func (d *TEA5767Driver) UpdateConf(image [ImageSize]byte) error {
	if err := d.checkInited(); err != nil {
		return err
	}

	s, err := DecodeSettings(image)
	if err != nil {
		return err
	}
	d.settings = s
	return nil
}

// Image returns the cached write image.
func (d *TEA5767Driver) Image() ([ImageSize]byte, error) {
	if err := d.checkInited(); err != nil {
		return [ImageSize]byte{}, err
	}
	return d.settings.Encode()
}

// Settings returns a copy of the cached settings.
func (d *TEA5767Driver) Settings() (Settings, error) {
	if err := d.checkInited(); err != nil {
		return Settings{}, err
	}
	return d.settings, nil
}

// FrequencyToPLL converts f with the cached band, injection side and clock.
func (d *TEA5767Driver) FrequencyToPLL(f physic.Frequency) (uint16, error) {
	if err := d.checkInited(); err != nil {
		return 0, err
	}
	return FrequencyToRegister(f, d.settings.Band, d.settings.Injection, d.settings.Clock)
}

// PLLToFrequency converts pll with the cached injection side and clock.
func (d *TEA5767Driver) PLLToFrequency(pll uint16) (physic.Frequency, error) {
	if err := d.checkInited(); err != nil {
		return 0, err
	}
	return RegisterToFrequency(pll, d.settings.Injection, d.settings.Clock)
}

// SetFrequency tunes to f.
func (d *TEA5767Driver) SetFrequency(f physic.Frequency) error {
	pll, err := d.FrequencyToPLL(f)
	if err != nil {
		return err
	}
	return d.update(func(s *Settings) { s.PLL = pll })
}

// Frequency reads the status and returns the frequency of the PLL
// readback. It returns ErrBandLimitReached when the chip reports the band
// edge.
func (d *TEA5767Driver) Frequency() (physic.Frequency, error) {
	st, err := d.ReadConf()
	if err != nil {
		return 0, err
	}
	return st.StationFrequency()
}

// SetAudioMute mutes or unmutes both channels, including soft mute, in one
// transfer.
func (d *TEA5767Driver) SetAudioMute(enable bool) error {
	return d.update(func(s *Settings) {
		s.Mute = enable
		s.LeftMute = enable
		s.RightMute = enable
		s.SoftMute = enable
	})
}

// SetMute sets the global mute.
func (d *TEA5767Driver) SetMute(enable bool) error {
	return d.update(func(s *Settings) { s.Mute = enable })
}

// SetMode selects normal or search mode.
func (d *TEA5767Driver) SetMode(mode Mode) error {
	return d.update(func(s *Settings) { s.Mode = mode })
}

// SetPLL sets the PLL word, which must fit in 14 bits.
func (d *TEA5767Driver) SetPLL(pll uint16) error {
	return d.update(func(s *Settings) { s.PLL = pll })
}

// SetSearchDirection sets the direction of the next search.
func (d *TEA5767Driver) SetSearchDirection(dir SearchDirection) error {
	return d.update(func(s *Settings) { s.SearchDirection = dir })
}

// SetSearchStopLevel sets the level at which the chip stops a search.
func (d *TEA5767Driver) SetSearchStopLevel(level StopLevel) error {
	return d.update(func(s *Settings) { s.StopLevel = level })
}

// SetSideInjection selects high or low side local oscillator injection.
func (d *TEA5767Driver) SetSideInjection(side Injection) error {
	return d.update(func(s *Settings) { s.Injection = side })
}

// SetOutputMode forces mono or allows stereo.
func (d *TEA5767Driver) SetOutputMode(mode OutputMode) error {
	return d.update(func(s *Settings) { s.Output = mode })
}

// SetRightMute mutes the right channel.
func (d *TEA5767Driver) SetRightMute(enable bool) error {
	return d.update(func(s *Settings) { s.RightMute = enable })
}

// SetLeftMute mutes the left channel.
func (d *TEA5767Driver) SetLeftMute(enable bool) error {
	return d.update(func(s *Settings) { s.LeftMute = enable })
}

// SetPort1 sets the software programmable port 1.
func (d *TEA5767Driver) SetPort1(level Level) error {
	return d.update(func(s *Settings) { s.Port1 = level })
}

// SetPort2 sets the software programmable port 2.
func (d *TEA5767Driver) SetPort2(level Level) error {
	return d.update(func(s *Settings) { s.Port2 = level })
}

// SetStandby enters or leaves standby.
func (d *TEA5767Driver) SetStandby(enable bool) error {
	return d.update(func(s *Settings) { s.Standby = enable })
}

// SetBand selects the band limits.
func (d *TEA5767Driver) SetBand(band Band) error {
	return d.update(func(s *Settings) { s.Band = band })
}

// SetSoftMute enables the soft mute.
func (d *TEA5767Driver) SetSoftMute(enable bool) error {
	return d.update(func(s *Settings) { s.SoftMute = enable })
}

// SetHighCutControl enables the high cut control.
func (d *TEA5767Driver) SetHighCutControl(enable bool) error {
	return d.update(func(s *Settings) { s.HighCutControl = enable })
}

// SetStereoNoiseCancelling enables the stereo noise cancelling.
func (d *TEA5767Driver) SetStereoNoiseCancelling(enable bool) error {
	return d.update(func(s *Settings) { s.StereoNoiseCancelling = enable })
}

// SetPort1AsSearchIndicator makes port 1 output the ready flag.
func (d *TEA5767Driver) SetPort1AsSearchIndicator(enable bool) error {
	return d.update(func(s *Settings) { s.Port1AsSearchIndicator = enable })
}

// SetDeEmphasis sets the de-emphasis time constant.
func (d *TEA5767Driver) SetDeEmphasis(emphasis DeEmphasis) error {
	return d.update(func(s *Settings) { s.DeEmphasis = emphasis })
}

// SetClock selects the reference clock.
func (d *TEA5767Driver) SetClock(clk Clock) error {
	return d.update(func(s *Settings) { s.Clock = clk })
}

// The getters below report the cached image, that is what the driver last
// wrote, not what the chip currently does.

// Mute returns the global mute.
func (d *TEA5767Driver) Mute() (bool, error) {
	s, err := d.Settings()
	return s.Mute, err
}

// Mode returns the chip mode.
func (d *TEA5767Driver) Mode() (Mode, error) {
	s, err := d.Settings()
	return s.Mode, err
}

// PLL returns the PLL word.
func (d *TEA5767Driver) PLL() (uint16, error) {
	s, err := d.Settings()
	return s.PLL, err
}

// SearchDirection returns the search direction.
func (d *TEA5767Driver) SearchDirection() (SearchDirection, error) {
	s, err := d.Settings()
	return s.SearchDirection, err
}

// SearchStopLevel returns the search stop level.
func (d *TEA5767Driver) SearchStopLevel() (StopLevel, error) {
	s, err := d.Settings()
	return s.StopLevel, err
}

// SideInjection returns the injection side.
func (d *TEA5767Driver) SideInjection() (Injection, error) {
	s, err := d.Settings()
	return s.Injection, err
}

// OutputMode returns the output mode.
func (d *TEA5767Driver) OutputMode() (OutputMode, error) {
	s, err := d.Settings()
	return s.Output, err
}

// RightMute returns the right channel mute.
func (d *TEA5767Driver) RightMute() (bool, error) {
	s, err := d.Settings()
	return s.RightMute, err
}

// LeftMute returns the left channel mute.
func (d *TEA5767Driver) LeftMute() (bool, error) {
	s, err := d.Settings()
	return s.LeftMute, err
}

// Port1 returns the level of port 1.
func (d *TEA5767Driver) Port1() (Level, error) {
	s, err := d.Settings()
	return s.Port1, err
}

// Port2 returns the level of port 2.
func (d *TEA5767Driver) Port2() (Level, error) {
	s, err := d.Settings()
	return s.Port2, err
}

// Standby returns the standby bit.
func (d *TEA5767Driver) Standby() (bool, error) {
	s, err := d.Settings()
	return s.Standby, err
}

// Band returns the band.
func (d *TEA5767Driver) Band() (Band, error) {
	s, err := d.Settings()
	return s.Band, err
}

// SoftMute returns the soft mute.
func (d *TEA5767Driver) SoftMute() (bool, error) {
	s, err := d.Settings()
	return s.SoftMute, err
}

// HighCutControl returns the high cut control.
func (d *TEA5767Driver) HighCutControl() (bool, error) {
	s, err := d.Settings()
	return s.HighCutControl, err
}

// StereoNoiseCancelling returns the stereo noise cancelling.
func (d *TEA5767Driver) StereoNoiseCancelling() (bool, error) {
	s, err := d.Settings()
	return s.StereoNoiseCancelling, err
}

// Port1AsSearchIndicator returns whether port 1 outputs the ready flag.
func (d *TEA5767Driver) Port1AsSearchIndicator() (bool, error) {
	s, err := d.Settings()
	return s.Port1AsSearchIndicator, err
}

// DeEmphasis returns the de-emphasis time constant.
func (d *TEA5767Driver) DeEmphasis() (DeEmphasis, error) {
	s, err := d.Settings()
	return s.DeEmphasis, err
}

// Clock returns the reference clock.
func (d *TEA5767Driver) Clock() (Clock, error) {
	s, err := d.Settings()
	return s.Clock, err
}

// update applies mutate to a copy of the cached settings and writes it.
func (d *TEA5767Driver) update(mutate func(*Settings)) error {
	if err := d.checkInited(); err != nil {
		return err
	}
	s := d.settings
	mutate(&s)
	return d.apply(s)
}

// apply encodes s, writes it and only then makes it the cached image, so
// a rejected value or a failed write leaves the cache untouched.
func (d *TEA5767Driver) apply(s Settings) error {
	buf, err := s.Encode()
	if err != nil {
		d.debugf("tea5767: %v.\n", err)
		return err
	}

	if d.debugLog != nil {
		d.debugLog("*** Conf: %s\n", sliceToString(buf[:]))
	}
	if err = d.transport.Write(buf[:]); err != nil {
		d.debugf("tea5767: write conf failed.\n")
		return &TransportError{Op: "write conf", Err: err}
	}

	d.settings = s
	return nil
}

func (d *TEA5767Driver) checkInited() error {
	if !d.inited {
		return ErrNotInitialized
	}
	return nil
}

func (d *TEA5767Driver) debugf(format string, v ...interface{}) {
	if d.debugLog != nil {
		d.debugLog(format, v...)
	}
}
