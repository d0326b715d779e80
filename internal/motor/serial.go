package motor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// SerialConfig selects the port of a serial motor controller board.
type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud uint   `mapstructure:"baud"`
}

// Serial talks to a microcontroller board that owns the motor drivers,
// one line per command:
//
//	D <motor> <value>   drive, value in [-1, 1] with three decimals
//	C <motor>           coast
type Serial struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	w    *bufio.Writer
}

// OpenSerial opens the configured port as 8N1.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        cfg.Port,
		BaudRate:        cfg.Baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Port)
	}
	return NewSerial(port), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{port: port, w: bufio.NewWriter(port)}
}

func (s *Serial) send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(line); err != nil {
		return errors.Wrap(err, "serial write")
	}
	return errors.Wrap(s.w.Flush(), "serial flush")
}

func checkID(id ID) error {
	switch id {
	case Left, Right, Weapon:
		return nil
	}
	return errors.Wrapf(ErrUnknownMotor, "%s", id)
}

func (s *Serial) Drive(_ context.Context, id ID, value float64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.send(EncodeDrive(id, value))
}

func (s *Serial) Coast(_ context.Context, id ID) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.send(EncodeCoast(id))
}

func (s *Serial) Close() error {
	err := Halt(context.Background(), s)
	if cerr := s.port.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close serial port")
	}
	return err
}

// EncodeDrive formats a drive command line.
func EncodeDrive(id ID, value float64) string {
	return fmt.Sprintf("D %s %.3f\n", id, Saturate(value))
}

// EncodeCoast formats a coast command line.
func EncodeCoast(id ID) string {
	return fmt.Sprintf("C %s\n", id)
}
