package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("session: invalid config")

// Mode selects how received chunks are rendered. Exactly one mode is
// active per run.
type Mode int

const (
	ModeInterpret Mode = iota
	ModeHex
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeHex:
		return "hex"
	case ModeRaw:
		return "raw"
	default:
		return "interpret"
	}
}

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "interpret":
		return ModeInterpret, nil
	case "hex":
		return ModeHex, nil
	case "raw":
		return ModeRaw, nil
	default:
		return ModeInterpret, fmt.Errorf("%w: unknown display mode %q", ErrInvalidConfig, raw)
	}
}

// Config defines one logging run.
type Config struct {
	Port         string
	Baud         int
	Mode         Mode
	LogPath      string
	PollInterval time.Duration
	ReadTimeout  time.Duration
	QueryDelay   time.Duration
	EnableDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Baud:         115200,
		Mode:         ModeInterpret,
		PollInterval: 10 * time.Millisecond,
		ReadTimeout:  time.Second,
		QueryDelay:   100 * time.Millisecond,
		EnableDelay:  50 * time.Millisecond,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Baud == 0 {
		c.Baud = def.Baud
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.QueryDelay == 0 {
		c.QueryDelay = def.QueryDelay
	}
	if c.EnableDelay == 0 {
		c.EnableDelay = def.EnableDelay
	}
	return c
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("%w: missing port", ErrInvalidConfig)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud rate must be positive, got %d", ErrInvalidConfig, c.Baud)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	return nil
}
