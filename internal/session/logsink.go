package session

import (
	"fmt"
	"os"
	"time"
)

// logSink is the optional plain-text record of the run: a two-line
// header, a blank line, then one rendered line per received chunk,
// synced after every write so a mid-run crash loses at most the line
// in flight.
type logSink struct {
	f *os.File
}

func newLogSink(path string, port string, baud int, start time.Time) (*logSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("session: open log file: %w", err)
	}
	header := fmt.Sprintf(
		"Monome Grid Serial Log - Started at %s\nPort: %s, Baud Rate: %d\n\n",
		start.Format("2006-01-02 15:04:05"),
		port,
		baud,
	)
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("session: write log header: %w", err)
	}
	return &logSink{f: f}, nil
}

func (s *logSink) WriteLine(line string) error {
	if _, err := s.f.WriteString(line + "\n"); err != nil {
		return err
	}
	return s.f.Sync()
}

func (s *logSink) Close() error {
	return s.f.Close()
}
