package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const readBufferSize = 4096

// Open opens a serial port with the Monome framing parameters: 8 data
// bits, no parity, one stop bit. The read timeout bounds both
// BytesAvailable polls and direct reads.
func Open(name string, baud int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %v", ErrOpen, name, err)
	}
	return &serialPort{p: p, buf: make([]byte, readBufferSize)}, nil
}

// serialPort adapts go.bug.st/serial to the Port contract. The
// underlying library has no input-queue query, so BytesAvailable
// performs one timed read and parks the result until the next Read
// call drains it.
type serialPort struct {
	p       serial.Port
	buf     []byte
	pending []byte
}

func (s *serialPort) BytesAvailable() (int, error) {
	if len(s.pending) > 0 {
		return len(s.pending), nil
	}
	n, err := s.p.Read(s.buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRead, err)
	}
	s.pending = s.buf[:n]
	return n, nil
}

func (s *serialPort) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		n, err := s.p.Read(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRead, err)
		}
		return n, nil
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *serialPort) Write(p []byte) (int, error) {
	n, err := s.p.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return n, nil
}

func (s *serialPort) Close() error {
	return s.p.Close()
}
