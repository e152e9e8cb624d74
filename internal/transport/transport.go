package transport

import (
	"errors"
	"time"
)

var (
	ErrOpen      = errors.New("transport: open serial port")
	ErrRead      = errors.New("transport: read")
	ErrWrite     = errors.New("transport: write")
	ErrEnumerate = errors.New("transport: enumerate ports")
)

// Port is one open serial connection. BytesAvailable blocks for at
// most the port's read timeout and reports how many bytes the next
// Read will return without blocking; Read then drains them as a
// single chunk.
type Port interface {
	BytesAvailable() (int, error)
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// OpenFunc is the seam the session uses to obtain a Port; tests
// substitute a fake, the CLI passes Open.
type OpenFunc func(name string, baud int, readTimeout time.Duration) (Port, error)

// PortInfo is one entry from the discovery listing.
type PortInfo struct {
	Device      string
	Description string
	VID         string
	PID         string
	IsUSB       bool
}
