package radio

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gobot.io/x/gobot/drivers/i2c"
	"periph.io/x/conn/v3/physic"
)

// fakeTransport records every call and answers reads from readImpl.
type fakeTransport struct {
	opened  int
	closed  int
	reads   int
	written [][]byte

	openErr  error
	closeErr error
	writeErr error
	readImpl func(n int, buf []byte) error
}

func (f *fakeTransport) Open() error {
	f.opened++
	return f.openErr
}

func (f *fakeTransport) Close() error {
	f.closed++
	return f.closeErr
}

func (f *fakeTransport) Write(buf []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), buf...))
	return nil
}

func (f *fakeTransport) Read(buf []byte) error {
	f.reads++
	if f.readImpl == nil {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	return f.readImpl(f.reads, buf)
}

func (f *fakeTransport) calls() int {
	return f.opened + f.closed + f.reads + len(f.written)
}

func (f *fakeTransport) lastWritten() []byte {
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

// statusImage builds a read image.
func statusImage(ready, bandLimit bool, pll uint16, stereo bool, level uint8) [ImageSize]byte {
	var buf [ImageSize]byte
	buf[0] = uint8(pll>>8) & 0x3F
	if ready {
		buf[0] |= 0x80
	}
	if bandLimit {
		buf[0] |= 0x40
	}
	buf[1] = uint8(pll)
	buf[2] = 0x31
	if stereo {
		buf[2] |= 0x80
	}
	buf[3] = level << 4
	return buf
}

// replay answers every read with image.
func replay(image [ImageSize]byte) func(int, []byte) error {
	return func(_ int, buf []byte) error {
		copy(buf, image[:])
		return nil
	}
}

type delayRecorder struct {
	calls []time.Duration
}

func (r *delayRecorder) delay(d time.Duration) {
	r.calls = append(r.calls, d)
}

func newTestDriver(t *testing.T) (*TEA5767Driver, *fakeTransport, *delayRecorder) {
	t.Helper()
	tr := &fakeTransport{}
	rec := &delayRecorder{}
	d, err := New(tr, TEA5767Config{
		Frequency:          98 * physic.MegaHertz,
		SearchPollInterval: 10 * time.Millisecond,
		SearchMaxPolls:     5,
		Delay:              rec.delay,
		DebugLog:           t.Logf,
	})
	if err != nil {
		t.Fatal(err)
	}
	return d, tr, rec
}

func newInitedDriver(t *testing.T) (*TEA5767Driver, *fakeTransport, *delayRecorder) {
	t.Helper()
	d, tr, rec := newTestDriver(t)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	return d, tr, rec
}

// i2cTestAdaptor implements gobot's i2c.Connector and i2c.Connection so
// GobotTransport can be exercised without hardware.
type i2cTestAdaptor struct {
	name          string
	mtx           sync.Mutex
	written       [][]byte
	lastAddress   int
	lastBus       int
	closed        bool
	i2cConnectErr bool
	i2cReadImpl   func([]byte) (int, error)
	i2cWriteImpl  func([]byte) (int, error)
}

func newI2cTestAdaptor() *i2cTestAdaptor {
	return &i2cTestAdaptor{
		name: "i2cTestAdaptor",
		i2cReadImpl: func(b []byte) (int, error) {
			return len(b), nil
		},
		i2cWriteImpl: func(b []byte) (int, error) {
			return len(b), nil
		},
	}
}

func (t *i2cTestAdaptor) Read(b []byte) (count int, err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.i2cReadImpl(b)
}

func (t *i2cTestAdaptor) Write(b []byte) (count int, err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.written = append(t.written, append([]byte(nil), b...))
	return t.i2cWriteImpl(b)
}

func (t *i2cTestAdaptor) Close() error {
	t.closed = true
	return nil
}

func (t *i2cTestAdaptor) ReadByte() (val byte, err error) {
	bytes := []byte{0}
	if _, err = t.Read(bytes); err != nil {
		return 0, err
	}
	return bytes[0], nil
}

func (t *i2cTestAdaptor) ReadByteData(uint8) (val uint8, err error) {
	return t.ReadByte()
}

func (t *i2cTestAdaptor) ReadWordData(uint8) (val uint16, err error) {
	bytes := []byte{0, 0}
	bytesRead, err := t.Read(bytes)
	if err != nil {
		return 0, err
	}
	if bytesRead != 2 {
		return 0, fmt.Errorf("buffer underrun")
	}
	return uint16(bytes[1])<<8 | uint16(bytes[0]), nil
}

func (t *i2cTestAdaptor) WriteByte(val byte) error {
	_, err := t.Write([]byte{val})
	return err
}

func (t *i2cTestAdaptor) WriteByteData(reg uint8, val uint8) error {
	_, err := t.Write([]byte{reg, val})
	return err
}

func (t *i2cTestAdaptor) WriteWordData(reg uint8, val uint16) error {
	_, err := t.Write([]byte{reg, uint8(val), uint8(val >> 8)})
	return err
}

func (t *i2cTestAdaptor) WriteBlockData(reg uint8, b []byte) error {
	_, err := t.Write(append([]byte{reg}, b...))
	return err
}

func (t *i2cTestAdaptor) GetConnection(address int, bus int) (connection i2c.Connection, err error) {
	if t.i2cConnectErr {
		return nil, errors.New("invalid i2c connection")
	}
	t.lastAddress = address
	t.lastBus = bus
	t.closed = false
	return t, nil
}

func (t *i2cTestAdaptor) GetDefaultBus() int {
	return 1
}

func (t *i2cTestAdaptor) Name() string          { return t.name }
func (t *i2cTestAdaptor) SetName(n string)      { t.name = n }
func (t *i2cTestAdaptor) Connect() (err error)  { return }
func (t *i2cTestAdaptor) Finalize() (err error) { return }
