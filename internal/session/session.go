package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/gridtap/internal/grid"
	"github.com/danmuck/gridtap/internal/hexdump"
	"github.com/danmuck/gridtap/internal/logging"
	"github.com/danmuck/gridtap/internal/render"
	"github.com/danmuck/gridtap/internal/transport"
)

// State is the session lifecycle position. Transitions run strictly
// forward: Connecting -> Initializing -> Reading -> Stopping -> Closed,
// with failed runs skipping straight to Stopping.
type State int

const (
	StateConnecting State = iota
	StateInitializing
	StateReading
	StateStopping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateReading:
		return "reading"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// handshakeCommand is one outbound best-effort initialization write.
// No response is awaited or validated; absence of a reply is not an
// error.
type handshakeCommand struct {
	name    string
	payload []byte
}

// Session owns one logging run: the open transport, the optional log
// sink, and the read loop. Single logical thread of control; no field
// is shared across goroutines.
type Session struct {
	cfg     Config
	open    transport.OpenFunc
	console io.Writer
	theme   render.Theme
	now     func() time.Time

	port  transport.Port
	sink  *logSink
	state State
}

type Option func(*Session)

// WithOpener substitutes the transport opener; tests inject fakes.
func WithOpener(open transport.OpenFunc) Option {
	return func(s *Session) { s.open = open }
}

func WithConsole(w io.Writer) Option {
	return func(s *Session) { s.console = w }
}

func WithTheme(t render.Theme) Option {
	return func(s *Session) { s.theme = t }
}

// WithClock substitutes the timestamp source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(cfg Config, opts ...Option) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		open:    transport.Open,
		console: os.Stdout,
		theme:   render.DefaultTheme(),
		now:     time.Now,
		state:   StateConnecting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) State() State {
	return s.state
}

// Run blocks until process signal shutdown or a fatal transport error.
func (s *Session) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext executes the full lifecycle: connect, handshake, read
// loop, cleanup. Context cancellation is the graceful stop path and
// returns nil; transport failures return wrapped transport errors.
func (s *Session) RunContext(ctx context.Context) error {
	defer s.cleanup()

	s.state = StateConnecting
	port, err := s.open(s.cfg.Port, s.cfg.Baud, s.cfg.ReadTimeout)
	if err != nil {
		return err
	}
	s.port = port
	logging.Infof("session.RunContext connected port=%q baud=%d mode=%s", s.cfg.Port, s.cfg.Baud, s.cfg.Mode)

	if s.cfg.LogPath != "" {
		sink, err := newLogSink(s.cfg.LogPath, s.cfg.Port, s.cfg.Baud, s.now())
		if err != nil {
			return err
		}
		s.sink = sink
		logging.Infof("session.RunContext logging to path=%q", s.cfg.LogPath)
	}

	s.state = StateInitializing
	if err := s.initialize(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	s.state = StateReading
	return s.readLoop(ctx)
}

// initialize sends the fixed query/enable handshake. Both key event
// opcode dialects get an enable command since firmware revisions
// disagree on the numbering.
func (s *Session) initialize(ctx context.Context) error {
	commands := []handshakeCommand{
		{"system query", []byte{grid.OpKeyUp}},
		{"device id query", []byte{grid.OpKeyDown}},
		{"grid size query", []byte{grid.OpGridSizeQuery}},
		{"alt key up enable", []byte{grid.OpAltKeyUp, 0x01}},
		{"alt key down enable", []byte{grid.OpAltKeyDown, 0x01}},
		{"legacy key up enable", []byte{grid.OpKeyUp, 0x01}},
		{"legacy key down enable", []byte{grid.OpKeyDown, 0x01}},
	}
	delays := []time.Duration{
		s.cfg.QueryDelay,
		s.cfg.QueryDelay,
		s.cfg.QueryDelay,
		s.cfg.EnableDelay,
		s.cfg.EnableDelay,
		s.cfg.EnableDelay,
		s.cfg.QueryDelay,
	}
	for i, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.Debugf("session.initialize write cmd=%q payload=[% X]", cmd.name, cmd.payload)
		if _, err := s.port.Write(cmd.payload); err != nil {
			return err
		}
		if err := sleepCtx(ctx, delays[i]); err != nil {
			return err
		}
	}
	logging.Infof("session.initialize handshake complete; ready to receive")
	return nil
}

// readLoop polls for available bytes and renders each chunk until the
// context is cancelled or the transport fails. Reads are opportunistic;
// the only cushion against a fast producer is the transport's own
// buffering.
func (s *Session) readLoop(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			s.state = StateStopping
			logging.Infof("session.readLoop logging stopped by user")
			return nil
		}

		avail, err := s.port.BytesAvailable()
		if err != nil {
			s.state = StateStopping
			return err
		}
		if avail == 0 {
			if err := sleepCtx(ctx, s.cfg.PollInterval); err != nil {
				s.state = StateStopping
				logging.Infof("session.readLoop logging stopped by user")
				return nil
			}
			continue
		}

		if avail > len(buf) {
			buf = make([]byte, avail)
		}
		n, err := s.port.Read(buf[:avail])
		if err != nil {
			s.state = StateStopping
			return err
		}
		if n == 0 {
			continue
		}
		chunk := buf[:n]

		ts := s.now().Format("15:04:05.000")
		plain, styled := s.renderChunk(ts, chunk)
		fmt.Fprintln(s.console, styled)
		if s.sink != nil {
			if err := s.sink.WriteLine(plain); err != nil {
				s.state = StateStopping
				return fmt.Errorf("session: log sink: %w", err)
			}
		}
	}
}

// renderChunk produces the plain line for the log sink and the styled
// line for the console. Styling never reaches the sink.
func (s *Session) renderChunk(ts string, chunk []byte) (plain string, styled string) {
	switch s.cfg.Mode {
	case ModeHex:
		hex, ascii := hexdump.Dump(chunk)
		line := render.HexLine(ts, hex, ascii)
		return line, line
	case ModeRaw:
		line := render.RawLine(ts, chunk)
		return line, line
	default:
		msg, ok := grid.Decode(chunk)
		if !ok {
			line := render.RawFallbackLine(ts, hexdump.Hex(chunk))
			return line, line
		}
		return s.theme.InterpretLine(ts, msg)
	}
}

// cleanup releases the transport and sink on every exit path.
func (s *Session) cleanup() {
	s.state = StateStopping
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			logging.Warnf("session.cleanup close port err=%v", err)
		} else {
			logging.Infof("session.cleanup serial port closed")
		}
		s.port = nil
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			logging.Warnf("session.cleanup close log file err=%v", err)
		} else {
			logging.Infof("session.cleanup log file closed")
		}
		s.sink = nil
	}
	s.state = StateClosed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
