// The package port opens and enumerates serial devices. A Session wraps one
// exclusively held device with the framing it was opened with; the
// operating system enforces the exclusivity.
package port

import (
	"errors"
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// ErrPortUnavailable is wrapped by Open when the device does not exist, is
// already held, or rejects the requested baud rate or framing.
var ErrPortUnavailable = errors.New("serial port unavailable")

// MaxBaudRate is the highest supported baud rate.
const MaxBaudRate = 2_000_000

// Parity selects the parity bit scheme of a serial connection.
type Parity byte

// All supported parity schemes.
const (
	NoParity Parity = iota
	EvenParity
	OddParity
)

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "none"
	case EvenParity:
		return "even"
	case OddParity:
		return "odd"
	}
	return "unknown"
}

// ParityByName maps the supported parity schemes by their flag value.
var ParityByName = map[string]Parity{
	"none": NoParity,
	"even": EvenParity,
	"odd":  OddParity,
}

// ParseParity returns the Parity with the given name.
func ParseParity(name string) (Parity, error) {
	result, ok := ParityByName[name]
	if !ok {
		return 0, fmt.Errorf("invalid parity %q (use none, even, or odd)", name)
	}
	return result, nil
}

// Config describes how to open one serial device. The configuration is
// fixed for the lifetime of the Session opened with it.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits int
}

// DefaultConfig returns the conventional 115200 8N1 configuration for the
// given device.
func DefaultConfig(device string) Config {
	return Config{
		Device:   device,
		BaudRate: 115200,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: 1,
	}
}

// Validate checks the configuration before any device I/O happens.
func (c Config) Validate() error {
	if c.Device == "" {
		return errors.New("no serial device given")
	}
	if c.BaudRate <= 0 || c.BaudRate > MaxBaudRate {
		return fmt.Errorf("baud rate %d out of range 1..%d", c.BaudRate, MaxBaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("data bits %d out of range 5..8", c.DataBits)
	}
	if c.Parity != NoParity && c.Parity != EvenParity && c.Parity != OddParity {
		return fmt.Errorf("invalid parity %d", c.Parity)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("stop bits %d must be 1 or 2", c.StopBits)
	}
	return nil
}

// pollTimeout bounds a single read on the device so the receive loop can
// enforce its own deadline. jacobsa/go-serial requires at least 100ms when
// no minimum read size is set.
const pollTimeout = 100

// Session is an open serial connection. A read that yields no data within
// the poll window returns (0, io.EOF); callers treat that as an empty poll,
// not as end of stream.
type Session struct {
	device io.ReadWriteCloser
	config Config
	closed bool
}

// Open opens exclusive access to the device described by config. The
// configuration is validated first, so Open on an invalid Config never
// touches the device.
func Open(config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := serial.OpenOptions{
		PortName:              config.Device,
		BaudRate:              uint(config.BaudRate),
		DataBits:              uint(config.DataBits),
		StopBits:              uint(config.StopBits),
		ParityMode:            parityMode(config.Parity),
		MinimumReadSize:       0,
		InterCharacterTimeout: pollTimeout,
	}
	device, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortUnavailable, config.Device, err)
	}

	return &Session{device: device, config: config}, nil
}

func parityMode(p Parity) serial.ParityMode {
	switch p {
	case EvenParity:
		return serial.PARITY_EVEN
	case OddParity:
		return serial.PARITY_ODD
	default:
		return serial.PARITY_NONE
	}
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() Config {
	return s.config
}

func (s *Session) Read(p []byte) (int, error) {
	return s.device.Read(p)
}

func (s *Session) Write(p []byte) (int, error) {
	return s.device.Write(p)
}

// Close releases the device. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.device.Close()
}
