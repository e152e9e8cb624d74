package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/gridtap/internal/render"
	"github.com/danmuck/gridtap/internal/testutil/testlog"
	"github.com/danmuck/gridtap/internal/transport"
)

// fakePort scripts inbound chunks and records outbound writes. When
// the script runs dry it invokes onIdle so tests can stop the session.
type fakePort struct {
	chunks   [][]byte
	writes   [][]byte
	closed   bool
	availErr error
	readErr  error
	onIdle   func()
}

func (f *fakePort) BytesAvailable() (int, error) {
	if f.availErr != nil {
		return 0, f.availErr
	}
	if len(f.chunks) == 0 {
		if f.onIdle != nil {
			f.onIdle()
		}
		return 0, nil
	}
	return len(f.chunks[0]), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, f.chunks[0])
	f.chunks = f.chunks[1:]
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func testClock() time.Time {
	return time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
}

func fastConfig(port string) Config {
	cfg := DefaultConfig()
	cfg.Port = port
	cfg.PollInterval = time.Millisecond
	cfg.QueryDelay = time.Millisecond
	cfg.EnableDelay = time.Millisecond
	return cfg
}

func newTestSession(t *testing.T, cfg Config, port *fakePort, console *bytes.Buffer) *Session {
	t.Helper()
	opener := func(name string, baud int, timeout time.Duration) (transport.Port, error) {
		return port, nil
	}
	s, err := New(cfg,
		WithOpener(opener),
		WithConsole(console),
		WithTheme(render.PlainTheme()),
		WithClock(testClock),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func runUntilIdle(t *testing.T, s *Session, port *fakePort) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	port.onIdle = cancel
	return s.RunContext(ctx)
}

func TestHandshakeWritesBothDialectsInOrder(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{}
	console := &bytes.Buffer{}
	s := newTestSession(t, fastConfig("/dev/ttyFAKE"), port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := [][]byte{
		{0x00}, {0x01}, {0x05},
		{0x20, 0x01}, {0x21, 0x01}, {0x00, 0x01}, {0x01, 0x01},
	}
	if len(port.writes) != len(want) {
		t.Fatalf("expected %d handshake writes, got %d: %v", len(want), len(port.writes), port.writes)
	}
	for i := range want {
		if !bytes.Equal(port.writes[i], want[i]) {
			t.Fatalf("write %d: got=[% X] want=[% X]", i, port.writes[i], want[i])
		}
	}
	// Outbound handshake commands never produce timeline lines.
	if console.Len() != 0 {
		t.Fatalf("unexpected timeline output: %q", console.String())
	}
	if !port.closed {
		t.Fatalf("port not closed on exit")
	}
	if s.State() != StateClosed {
		t.Fatalf("unexpected final state: %v", s.State())
	}
}

func TestInterpretModeRendersDecodedLine(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{chunks: [][]byte{{0x21, 3, 4}}}
	console := &bytes.Buffer{}
	s := newTestSession(t, fastConfig("/dev/ttyFAKE"), port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "[10:00:00.000] Key DOWN at (3, 4) [Alt code] [21 03 04]\n"
	if console.String() != want {
		t.Fatalf("console=%q want=%q", console.String(), want)
	}
}

func TestInterpretModeUnknownChunkKeepsRawHex(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{chunks: [][]byte{{0xAA, 0xBB}}}
	console := &bytes.Buffer{}
	s := newTestSession(t, fastConfig("/dev/ttyFAKE"), port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "[10:00:00.000] Unknown [AA BB]\n"
	if console.String() != want {
		t.Fatalf("console=%q want=%q", console.String(), want)
	}
}

func TestHexModeRendersDumpLine(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{chunks: [][]byte{{0x00, 0x05, 0x41}}}
	console := &bytes.Buffer{}
	cfg := fastConfig("/dev/ttyFAKE")
	cfg.Mode = ModeHex
	s := newTestSession(t, cfg, port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "[10:00:00.000] HEX: 00 05 41 | ASCII: ..A\n"
	if console.String() != want {
		t.Fatalf("console=%q want=%q", console.String(), want)
	}
}

func TestRawModeRendersByteRepresentation(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{chunks: [][]byte{{0x00, 'A'}}}
	console := &bytes.Buffer{}
	cfg := fastConfig("/dev/ttyFAKE")
	cfg.Mode = ModeRaw
	s := newTestSession(t, cfg, port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "[10:00:00.000] \"\\x00A\"\n"
	if console.String() != want {
		t.Fatalf("console=%q want=%q", console.String(), want)
	}
}

func TestLogSinkReceivesHeaderAndPlainLines(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	port := &fakePort{chunks: [][]byte{{0x00, 5, 2}}}
	console := &bytes.Buffer{}
	cfg := fastConfig("/dev/ttyFAKE")
	cfg.LogPath = logPath
	s := newTestSession(t, cfg, port, console)

	if err := runUntilIdle(t, s, port); err != nil {
		t.Fatalf("run: %v", err)
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(raw)
	lines := strings.Split(content, "\n")
	if len(lines) < 4 {
		t.Fatalf("short log file: %q", content)
	}
	if !strings.HasPrefix(lines[0], "Monome Grid Serial Log - Started at ") {
		t.Fatalf("bad header line: %q", lines[0])
	}
	if lines[1] != "Port: /dev/ttyFAKE, Baud Rate: 115200" {
		t.Fatalf("bad port line: %q", lines[1])
	}
	if lines[2] != "" {
		t.Fatalf("missing blank separator: %q", lines[2])
	}
	if lines[3] != "[10:00:00.000] Key UP at (5, 2) [00 05 02]" {
		t.Fatalf("bad timeline line: %q", lines[3])
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("log sink carries escape codes: %q", content)
	}
}

func TestReadErrorEndsSession(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{availErr: fmt.Errorf("%w: device unplugged", transport.ErrRead)}
	console := &bytes.Buffer{}
	s := newTestSession(t, fastConfig("/dev/ttyFAKE"), port, console)

	err := s.RunContext(context.Background())
	if !errors.Is(err, transport.ErrRead) {
		t.Fatalf("expected transport.ErrRead, got %v", err)
	}
	if !port.closed {
		t.Fatalf("port not closed after read failure")
	}
	if s.State() != StateClosed {
		t.Fatalf("unexpected final state: %v", s.State())
	}
}

func TestOpenFailureAbortsRun(t *testing.T) {
	testlog.Start(t)
	opener := func(name string, baud int, timeout time.Duration) (transport.Port, error) {
		return nil, fmt.Errorf("%w: %s: no such device", transport.ErrOpen, name)
	}
	s, err := New(fastConfig("/dev/ttyMISSING"), WithOpener(opener), WithConsole(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	err = s.RunContext(context.Background())
	if !errors.Is(err, transport.ErrOpen) {
		t.Fatalf("expected transport.ErrOpen, got %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("unexpected final state: %v", s.State())
	}
}

func TestCancelBeforeHandshakeIsGraceful(t *testing.T) {
	testlog.Start(t)
	port := &fakePort{}
	console := &bytes.Buffer{}
	s := newTestSession(t, fastConfig("/dev/ttyFAKE"), port, console)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunContext(ctx); err != nil {
		t.Fatalf("cancelled run must be graceful, got %v", err)
	}
	if len(port.writes) != 0 {
		t.Fatalf("no handshake writes expected, got %v", port.writes)
	}
	if !port.closed {
		t.Fatalf("port not closed")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	testlog.Start(t)
	if _, err := New(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing port, got %v", err)
	}
	cfg := DefaultConfig()
	cfg.Port = "/dev/ttyFAKE"
	cfg.Baud = -1
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for negative baud, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		raw  string
		mode Mode
		ok   bool
	}{
		{"", ModeInterpret, true},
		{"interpret", ModeInterpret, true},
		{"HEX", ModeHex, true},
		{" raw ", ModeRaw, true},
		{"binary", ModeInterpret, false},
	}
	for _, tc := range cases {
		mode, err := ParseMode(tc.raw)
		if tc.ok && err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.raw, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("ParseMode(%q): expected ErrInvalidConfig, got %v", tc.raw, err)
			}
			continue
		}
		if mode != tc.mode {
			t.Fatalf("ParseMode(%q)=%v want=%v", tc.raw, mode, tc.mode)
		}
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Port: "/dev/ttyFAKE"}.WithDefaults()
	def := DefaultConfig()
	if cfg.Baud != def.Baud || cfg.PollInterval != def.PollInterval ||
		cfg.ReadTimeout != def.ReadTimeout || cfg.QueryDelay != def.QueryDelay ||
		cfg.EnableDelay != def.EnableDelay {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
