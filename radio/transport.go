package radio

import (
	"fmt"
	"io"

	"gobot.io/x/gobot/drivers/i2c"
)

// Transport moves whole images between the driver and the chip. The driver
// always writes and reads exactly ImageSize bytes.
type Transport interface {
	Open() error
	Close() error
	Write(buf []byte) error
	Read(buf []byte) error
}

// GobotTransport talks to the chip through a gobot i2c.Connector such as
// the raspi adaptor.
type GobotTransport struct {
	i2c.Config

	connector i2c.Connector
	conn      i2c.Connection
}

// NewGobotTransport creates a transport on top of a gobot connector. The
// bus and address can be changed with i2c.WithBus and i2c.WithAddress, the
// default address being Address.
func NewGobotTransport(connector i2c.Connector, options ...func(i2c.Config)) *GobotTransport {
	t := &GobotTransport{
		Config:    i2c.NewConfig(),
		connector: connector,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Open gets the connection to the device.
func (t *GobotTransport) Open() error {
	if t.connector == nil {
		return fmt.Errorf("no i2c connector")
	}

	bus := t.GetBusOrDefault(t.connector.GetDefaultBus())
	addr := t.GetAddressOrDefault(Address)

	conn, err := t.connector.GetConnection(addr, bus)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// Close releases the connection.
func (t *GobotTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Write sends buf in a single i2c write.
func (t *GobotTransport) Write(buf []byte) error {
	if t.conn == nil {
		return fmt.Errorf("i2c connection is not open")
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// Read fills buf in a single i2c read.
func (t *GobotTransport) Read(buf []byte) error {
	if t.conn == nil {
		return fmt.Errorf("i2c connection is not open")
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("failed to read %d bytes from the line, read %d -> %s", len(buf), n, sliceToString(buf[:n]))
	}
	return nil
}

func sliceToString(val []byte) string {
	res := ""
	for idx := range val {
		res += fmt.Sprintf("[%d]=0x%x(%d) ", idx, val[idx], val[idx])
	}
	return res
}
