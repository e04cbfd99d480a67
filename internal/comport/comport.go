// Package comport carries CR-terminated ASCII lines over a serial port.
package comport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
	"go.bug.st/serial"
)

// Terminator ends every request and response line.
const Terminator = '\r'

// LineReadWriter is the duplex line channel a device session talks over.
type LineReadWriter interface {
	// WriteLine sends line as is. The caller appends the terminator.
	WriteLine(line []byte) error
	// ReadLine blocks for one terminated line, at most for the read timeout,
	// and returns it without the terminator and surrounding blanks.
	ReadLine() (string, error)
	Close() error
}

// Config describes the serial line.
type Config struct {
	Name        string        `yaml:"name"`
	Baud        int           `yaml:"baud"`
	DataBits    int           `yaml:"data_bits"`
	Parity      string        `yaml:"parity"`
	StopBits    int           `yaml:"stop_bits"`
	RtsCts      bool          `yaml:"rtscts"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	LogComm     bool          `yaml:"log_comm"`
}

// DefaultConfig is 9600 8N1 with hardware flow control and a 5 s read timeout.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		Baud:        9600,
		DataBits:    8,
		Parity:      "N",
		StopBits:    1,
		RtsCts:      true,
		ReadTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Name == "" {
		return merry.New("serial port name must be set")
	}
	if c.Baud <= 0 {
		return merry.Errorf("wrong baud=%d: must be positive", c.Baud)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return merry.Errorf("wrong data_bits=%d: must be 5..8", c.DataBits)
	}
	if _, err := c.parity(); err != nil {
		return err
	}
	if _, err := c.stopBits(); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return merry.Errorf("wrong read_timeout=%v: must be positive", c.ReadTimeout)
	}
	return nil
}

func (c Config) mode() (*serial.Mode, error) {
	parity, err := c.parity()
	if err != nil {
		return nil, err
	}
	stopBits, err := c.stopBits()
	if err != nil {
		return nil, err
	}
	return &serial.Mode{
		BaudRate:          c.Baud,
		DataBits:          c.DataBits,
		Parity:            parity,
		StopBits:          stopBits,
		InitialStatusBits: &serial.ModemOutputBits{RTS: true, DTR: true},
	}, nil
}

func (c Config) parity() (serial.Parity, error) {
	switch strings.ToUpper(c.Parity) {
	case "", "N":
		return serial.NoParity, nil
	case "E":
		return serial.EvenParity, nil
	case "O":
		return serial.OddParity, nil
	default:
		return 0, merry.Errorf("wrong parity=%q: must be N, E or O", c.Parity)
	}
}

func (c Config) stopBits() (serial.StopBits, error) {
	switch c.StopBits {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	default:
		return 0, merry.Errorf("wrong stop_bits=%d: must be 1 or 2", c.StopBits)
	}
}

// serialPort is the part of serial.Port used here.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Port is an open serial line. It is not safe for concurrent use: the
// device session serializes access.
type Port struct {
	c       Config
	p       serialPort
	log     *structlog.Logger
	pending []byte
	closed  bool
	mu      sync.Mutex
}

var _ LineReadWriter = new(Port)

// Open opens and configures the serial port.
func Open(c Config) (*Port, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, err := c.mode()
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(c.Name, mode)
	if err != nil {
		return nil, &TransportError{Op: "open", Port: c.Name, Err: merry.Wrap(err)}
	}
	if err := p.SetReadTimeout(pollInterval); err != nil {
		log.ErrIfFail(p.Close, "close_comport", c.Name)
		return nil, &TransportError{Op: "open", Port: c.Name, Err: merry.Wrap(err)}
	}
	log.Debug("open", "comport", c.Name, "baud", c.Baud)
	return newPort(c, p), nil
}

func newPort(c Config, p serialPort) *Port {
	return &Port{
		c:   c,
		p:   p,
		log: log.New(structlog.KeyUnit, c.Name),
	}
}

func (x *Port) Name() string { return x.c.Name }

func (x *Port) WriteLine(line []byte) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return &TransportError{Op: "write", Port: x.c.Name, Err: ErrPortClosed}
	}
	x.pending = x.pending[:0]
	if err := x.p.ResetInputBuffer(); err != nil {
		return &TransportError{Op: "write", Port: x.c.Name, Err: merry.Wrap(err)}
	}
	if x.c.RtsCts {
		if err := x.waitCTS(); err != nil {
			return err
		}
	}
	if x.c.LogComm {
		x.log.Debug("request", "line", printable(line))
	}
	n, err := x.p.Write(line)
	if err != nil {
		return &TransportError{Op: "write", Port: x.c.Name, Err: merry.Wrap(err)}
	}
	if n != len(line) {
		return &TransportError{Op: "write", Port: x.c.Name, Err: merry.Errorf("%d of %d bytes written", n, len(line))}
	}
	return nil
}

func (x *Port) waitCTS() error {
	deadline := time.Now().Add(x.c.ReadTimeout)
	for {
		st, err := x.p.GetModemStatusBits()
		if err != nil {
			return &TransportError{Op: "cts", Port: x.c.Name, Err: merry.Wrap(err)}
		}
		if st.CTS {
			return nil
		}
		if time.Now().After(deadline) {
			return &TransportError{Op: "cts", Port: x.c.Name, Timeout: true,
				Err: merry.Errorf("CTS not asserted within %v", x.c.ReadTimeout)}
		}
		time.Sleep(pollInterval)
	}
}

func (x *Port) ReadLine() (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return "", &TransportError{Op: "read", Port: x.c.Name, Err: ErrPortClosed}
	}
	deadline := time.Now().Add(x.c.ReadTimeout)
	buf := make([]byte, 64)
	for {
		if n := bytes.IndexByte(x.pending, Terminator); n >= 0 {
			line := string(x.pending[:n])
			x.pending = append(x.pending[:0], x.pending[n+1:]...)
			if x.c.LogComm {
				x.log.Debug("response", "line", printable([]byte(line)))
			}
			return strings.TrimSpace(line), nil
		}
		if !time.Now().Before(deadline) {
			return "", &TransportError{Op: "read", Port: x.c.Name, Timeout: true,
				Err: merry.Errorf("no response within %v, received %q", x.c.ReadTimeout, x.pending)}
		}
		n, err := x.p.Read(buf)
		if err != nil {
			return "", &TransportError{Op: "read", Port: x.c.Name, Err: merry.Wrap(err)}
		}
		x.pending = append(x.pending, buf[:n]...)
	}
}

func (x *Port) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	if err := x.p.Close(); err != nil {
		return &TransportError{Op: "close", Port: x.c.Name, Err: merry.Wrap(err)}
	}
	return nil
}

func printable(b []byte) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(string(b))
}

// ErrPortClosed is the cause of a TransportError on a closed port.
var ErrPortClosed = merry.New("port closed")

// TransportError is an I/O failure or a timeout on the serial line.
type TransportError struct {
	Op      string
	Port    string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	what := "failed"
	if e.Timeout {
		what = "timed out"
	}
	return fmt.Sprintf("%s %s %s: %v", e.Port, e.Op, what, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// pollInterval bounds a single serial read so the line deadline is checked
// regularly.
const pollInterval = 10 * time.Millisecond

var log = structlog.New()
