package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/danmuck/gridtap/internal/session"
)

type options struct {
	list bool
	cfg  session.Config
}

// parseArgs builds the run config: defaults, then the optional TOML
// file, then flags. Flags always win over the file.
func parseArgs(args []string) (options, error) {
	flags := pflag.NewFlagSet("gridtap", pflag.ContinueOnError)
	port := flags.StringP("port", "p", "", "serial port to use (e.g. /dev/tty.usbserial-m1000065)")
	baud := flags.IntP("baud", "b", 115200, "baud rate")
	list := flags.BoolP("list", "l", false, "list available serial ports and exit")
	output := flags.StringP("output", "o", "", "save output to the given log file")
	hexMode := flags.Bool("hex", false, "display data in hexadecimal format")
	rawMode := flags.Bool("raw", false, "display raw data without interpretation")
	configPath := flags.String("config", "", "load defaults from a TOML config file")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	cfg := session.DefaultConfig()
	if strings.TrimSpace(*configPath) != "" {
		loaded, err := loadFileConfig(*configPath)
		if err != nil {
			return options{}, err
		}
		cfg = loaded
	}

	if flags.Changed("port") {
		cfg.Port = strings.TrimSpace(*port)
	}
	if flags.Changed("baud") {
		cfg.Baud = *baud
	}
	if flags.Changed("output") {
		cfg.LogPath = strings.TrimSpace(*output)
	}
	// Display mode precedence: hex beats raw beats interpret.
	switch {
	case *hexMode:
		cfg.Mode = session.ModeHex
	case *rawMode:
		cfg.Mode = session.ModeRaw
	}

	return options{list: *list, cfg: cfg}, nil
}

// gridtap config.toml key mapping to session settings.
type fileConfig struct {
	Port           string `toml:"port"`
	Baud           int    `toml:"baud"`
	Output         string `toml:"output"`
	Mode           string `toml:"mode"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// gridtap loader for TOML config with default overlay.
func loadFileConfig(path string) (session.Config, error) {
	cfg := session.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return session.Config{}, fmt.Errorf("load gridtap config: %w", err)
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("output") {
		cfg.LogPath = strings.TrimSpace(raw.Output)
	}
	if meta.IsDefined("mode") {
		mode, err := session.ParseMode(raw.Mode)
		if err != nil {
			return session.Config{}, fmt.Errorf("load gridtap config: %w", err)
		}
		cfg.Mode = mode
	}
	if meta.IsDefined("poll_interval_ms") {
		if raw.PollIntervalMS <= 0 {
			return session.Config{}, fmt.Errorf(
				"load gridtap config: poll_interval_ms must be positive, got %d",
				raw.PollIntervalMS,
			)
		}
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}

	return cfg, nil
}
