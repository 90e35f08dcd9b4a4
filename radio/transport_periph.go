package radio

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphTransport talks to the chip through a periph.io i2c bus.
type PeriphTransport struct {
	name   string
	addr   uint16
	opener func() (i2c.BusCloser, error)

	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewPeriphTransport returns a transport that initializes the periph host
// drivers and opens the named bus (for example "I2C1" or "/dev/i2c-1") on
// Open. An empty name selects the first bus found.
func NewPeriphTransport(busName string, addr uint16) *PeriphTransport {
	return &PeriphTransport{
		name: busName,
		addr: addr,
		opener: func() (i2c.BusCloser, error) {
			if _, err := host.Init(); err != nil {
				return nil, fmt.Errorf("could not init host: %v", err)
			}
			bus, err := i2creg.Open(busName)
			if err != nil {
				return nil, fmt.Errorf("could not open bus: %v", err)
			}
			return bus, nil
		},
	}
}

// NewPeriphBusTransport wraps a bus that is already open. Close closes it.
func NewPeriphBusTransport(bus i2c.BusCloser, addr uint16) *PeriphTransport {
	return &PeriphTransport{
		name:   bus.String(),
		addr:   addr,
		opener: func() (i2c.BusCloser, error) { return bus, nil },
	}
}

func (t *PeriphTransport) String() string {
	return fmt.Sprintf("%s@0x%02x", t.name, t.addr)
}

// Open opens the bus.
func (t *PeriphTransport) Open() error {
	bus, err := t.opener()
	if err != nil {
		return err
	}
	t.bus = bus
	t.dev = &i2c.Dev{Bus: bus, Addr: t.addr}
	return nil
}

// Close closes the bus.
func (t *PeriphTransport) Close() error {
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	t.dev = nil
	return err
}

// Write sends buf as one write transaction.
func (t *PeriphTransport) Write(buf []byte) error {
	if t.dev == nil {
		return fmt.Errorf("bus %s is not open", t.name)
	}
	return t.dev.Tx(buf, nil)
}

// Read fills buf with one read transaction.
func (t *PeriphTransport) Read(buf []byte) error {
	if t.dev == nil {
		return fmt.Errorf("bus %s is not open", t.name)
	}
	return t.dev.Tx(nil, buf)
}
