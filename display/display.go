// Package display drives the 16x2 character LCDs sold with a PCF8574 i2c
// backpack (SunFounder LCD1602 and clones) and renders the tuner status on
// them.
package display

import (
	"fmt"
	"strings"
	"time"

	"fmtuner/radio"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/i2c"
	"periph.io/x/conn/v3/physic"
)

// Address is the default address of the i2c backpack.
const Address = 0x27

// Columns and Rows of the display.
const (
	Columns = 16
	Rows    = 2
)

// Backpack control bits. The data nibble travels in the upper four bits.
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06
	cmdDisplayOn   = 0x0C
	cmdFunctionSet = 0x28
	cmdSetDDRAM    = 0x80
	rowOffset      = 0x40
)

// LCD1602Driver controls a 16x2 LCD behind a PCF8574 backpack.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
type LCD1602Driver struct {
	name      string
	connector i2c.Connector
	i2c.Config

	conn      i2c.Connection
	backlight bool
	sleep     func(time.Duration)
}

// NewLCD1602Driver creates a new GoBot driver for the LCD.
func NewLCD1602Driver(connector i2c.Connector, options ...func(i2c.Config)) *LCD1602Driver {
	lcd := &LCD1602Driver{
		name:      gobot.DefaultName("LCD1602Driver"),
		connector: connector,
		Config:    i2c.NewConfig(),
		backlight: true,
		sleep:     time.Sleep,
	}

	for _, option := range options {
		option(lcd)
	}

	return lcd
}

// Name of our device
func (lcd *LCD1602Driver) Name() string {
	return lcd.name
}

// SetName set the name of our device
func (lcd *LCD1602Driver) SetName(name string) {
	lcd.name = name
}

// Connection retrieves the i2c connection to the device
func (lcd *LCD1602Driver) Connection() gobot.Connection {
	conn, _ := lcd.connector.(gobot.Connection)
	return conn
}

// Start switches the controller to 4 bit mode and clears the screen.
func (lcd *LCD1602Driver) Start() error {
	bus := lcd.GetBusOrDefault(lcd.connector.GetDefaultBus())

	var err error
	lcd.conn, err = lcd.connector.GetConnection(lcd.GetAddressOrDefault(Address), bus)
	if err != nil {
		return err
	}

	// 0x33 and 0x32 walk the controller from 8 bit into 4 bit mode
	for _, cmd := range []byte{0x33, 0x32, cmdFunctionSet, cmdDisplayOn, cmdEntryMode} {
		if err = lcd.command(cmd); err != nil {
			return err
		}
		lcd.sleep(5 * time.Millisecond)
	}

	return lcd.Clear()
}

// Halt turns the backlight off and clears the screen.
func (lcd *LCD1602Driver) Halt() error {
	if lcd.conn == nil {
		return nil
	}
	lcd.backlight = false
	return lcd.Clear()
}

// SetBacklight turns the backlight on or off.
func (lcd *LCD1602Driver) SetBacklight(on bool) error {
	lcd.backlight = on
	return lcd.write(0)
}

// Clear removes any text from the screen.
func (lcd *LCD1602Driver) Clear() error {
	if err := lcd.command(cmdClear); err != nil {
		return err
	}
	lcd.sleep(2 * time.Millisecond)
	return nil
}

// Print writes text on row, padded or cut to the width of the screen.
func (lcd *LCD1602Driver) Print(row int, text string) error {
	if row < 0 || row >= Rows {
		return fmt.Errorf("row %d out of range", row)
	}

	if err := lcd.command(cmdSetDDRAM | byte(rowOffset*row)); err != nil {
		return err
	}
	for _, ch := range []byte(fit(text)) {
		if err := lcd.send(bitRS, ch); err != nil {
			return err
		}
	}
	return nil
}

// PrintLines writes both rows.
func (lcd *LCD1602Driver) PrintLines(lines [Rows]string) error {
	for row, text := range lines {
		if err := lcd.Print(row, text); err != nil {
			return err
		}
	}
	return nil
}

// ShowStatus renders a status read from the tuner.
func (lcd *LCD1602Driver) ShowStatus(st radio.Status) error {
	return lcd.PrintLines(StatusLines(st))
}

// StatusLines formats a tuner status for the screen:
//
//	FM  98.00 MHz ST
//	Level  9  IF 49
func StatusLines(st radio.Status) [Rows]string {
	// rounded to 10 kHz
	tens := (int64(st.Frequency/physic.Hertz) + 5000) / 10000
	top := fmt.Sprintf("FM %3d.%02d MHz %s", tens/100, tens%100, receptionTag(st.Reception))

	var bottom string
	switch {
	case st.BandLimit:
		bottom = "Band limit"
	case !st.Ready:
		bottom = "Tuning..."
	default:
		bottom = fmt.Sprintf("Level %2d  IF %2d", st.Level, st.IFCounter)
	}

	return [Rows]string{fit(top), fit(bottom)}
}

func receptionTag(r radio.Reception) string {
	if r == radio.ReceptionStereo {
		return "ST"
	}
	return "MO"
}

// fit pads or cuts text to the width of the screen. The controller only
// knows ASCII, anything else is replaced.
func fit(text string) string {
	b := make([]byte, 0, Columns)
	for _, ch := range text {
		if len(b) == Columns {
			break
		}
		if ch > 0x7E || ch < 0x20 {
			ch = '?'
		}
		b = append(b, byte(ch))
	}
	return string(b) + strings.Repeat(" ", Columns-len(b))
}

func (lcd *LCD1602Driver) command(cmd byte) error {
	return lcd.send(0, cmd)
}

// send transfers one byte as two nibbles, each latched by a pulse on EN.
func (lcd *LCD1602Driver) send(mode byte, val byte) error {
	for _, nibble := range []byte{val & 0xF0, val << 4} {
		if err := lcd.write(nibble | mode | bitEnable); err != nil {
			return err
		}
		lcd.sleep(2 * time.Millisecond)
		if err := lcd.write(nibble | mode); err != nil {
			return err
		}
	}
	return nil
}

func (lcd *LCD1602Driver) write(val byte) error {
	if lcd.conn == nil {
		return fmt.Errorf("lcd is not started")
	}
	if lcd.backlight {
		val |= bitBacklight
	}
	return lcd.conn.WriteByte(val)
}
