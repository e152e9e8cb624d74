package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/danmuck/gridtap/internal/logging"
	"github.com/danmuck/gridtap/internal/session"
	"github.com/danmuck/gridtap/internal/transport"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "gridtap: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	if opts.list {
		return printPorts(os.Stdout, transport.ListPorts)
	}
	if opts.cfg.Port == "" {
		// Show what is available before complaining.
		if err := printPorts(os.Stdout, transport.ListPorts); err != nil {
			logging.Warnf("gridtap.run list ports err=%v", err)
		}
		return errors.New("no serial port specified; use -p/--port")
	}
	s, err := session.New(opts.cfg)
	if err != nil {
		return err
	}
	return s.Run()
}

func printPorts(w io.Writer, list func() ([]transport.PortInfo, error)) error {
	ports, err := list()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports detected.")
		return nil
	}
	fmt.Fprintln(w, "Available serial ports:")
	for i, p := range ports {
		vidPid := "None"
		if p.VID != "" {
			vidPid = fmt.Sprintf("%s:%s", p.VID, p.PID)
		}
		fmt.Fprintf(w, "%d. %s - %s [VID:PID=%s]\n", i+1, p.Device, p.Description, vidPid)
	}
	return nil
}
