package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hwprobe/serialfwd/bridge"
	"github.com/hwprobe/serialfwd/config"
	"github.com/hwprobe/serialfwd/port"
	"github.com/hwprobe/serialfwd/render"
	"github.com/hwprobe/serialfwd/translog"
)

// errBadInvocation marks errors caused by the invocation itself (missing or
// conflicting flags, out-of-range values). They are reported before any
// device I/O happens.
var errBadInvocation = errors.New("invalid invocation")

type options struct {
	list           bool
	portName       string
	baudRate       int
	dataBits       int
	parity         string
	stopBits       int
	send           string
	sendHex        string
	sendBytes      string
	receive        bool
	receiveTimeout float64
	waitTime       float64
	outputFormat   string
	logFile        string
	configFile     string
	interactive    bool
	verbose        bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "serialfwd",
	Short: "One-shot serial port transactions for automated callers",
	Long: `Serialfwd opens a serial port, optionally sends a payload, optionally
waits for a reply within a timeout window, and prints the result in a
machine-friendly format. Every byte sent or received is appended to a
shared transcript file.

Examples:
  serialfwd --list
  serialfwd -p /dev/ttyUSB0 -s 'AT\r\n' -r --output-format json
  serialfwd -p COM3 --send-hex 41540D0A -r --receive-timeout 2.5
  serialfwd -p /dev/ttyUSB0 -b 2000000 -i`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(opts.verbose)

		if opts.list {
			return runList(opts.outputFormat)
		}

		cfg, err := config.Load(opts.configFile)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadInvocation, err)
		}
		applyConfig(cmd, &opts, cfg)

		portConfig, tx, err := buildTransaction(opts)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadInvocation, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if opts.interactive {
			return runInteractive(ctx, portConfig, opts.logFile)
		}
		return runTransaction(ctx, portConfig, tx, opts.outputFormat, opts.logFile)
	},
}

func init() {
	rootCmd.Args = cobra.NoArgs
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errBadInvocation, err)
	})

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.list, "list", "l", false, "list available serial devices and exit")
	flags.StringVarP(&opts.portName, "port", "p", "", "serial device, e.g. COM3 or /dev/ttyUSB0")
	flags.IntVarP(&opts.baudRate, "baudrate", "b", 115200, "baud rate, up to 2000000")
	flags.IntVar(&opts.dataBits, "databits", 8, "data bits (5..8)")
	flags.StringVar(&opts.parity, "parity", "none", "parity: none, even, or odd")
	flags.IntVar(&opts.stopBits, "stopbits", 1, "stop bits (1 or 2)")
	flags.StringVarP(&opts.send, "send", "s", "", "send text (\\r \\n \\t \\\\ are expanded)")
	flags.StringVar(&opts.sendHex, "send-hex", "", "send bytes given as a hex string, e.g. FF00AA")
	flags.StringVar(&opts.sendBytes, "send-bytes", "", "send bytes given as a list, e.g. [255,0,170]")
	flags.BoolVarP(&opts.receive, "receive", "r", false, "read a reply after sending")
	flags.Float64Var(&opts.receiveTimeout, "receive-timeout", 1.0, "receive inactivity timeout in seconds")
	flags.Float64Var(&opts.waitTime, "wait-time", 0.1, "settle delay between send and receive in seconds")
	flags.StringVar(&opts.outputFormat, "output-format", "text", "output format: text, hex, or json")
	flags.StringVar(&opts.logFile, "log-file", translog.DefaultPath, "transcript file path")
	flags.StringVar(&opts.configFile, "config", "", "defaults file (default "+config.DefaultPath+" if present)")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "interactive session instead of a single transaction")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose diagnostics on stderr")
}

func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// applyConfig seeds every flag the user did not set explicitly from the
// defaults file. Explicit flags always win.
func applyConfig(cmd *cobra.Command, opts *options, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("port") && cfg.Port != "" {
		opts.portName = cfg.Port
	}
	if !flags.Changed("baudrate") {
		opts.baudRate = cfg.BaudRate
	}
	if !flags.Changed("databits") {
		opts.dataBits = cfg.DataBits
	}
	if !flags.Changed("parity") {
		opts.parity = cfg.Parity
	}
	if !flags.Changed("stopbits") {
		opts.stopBits = cfg.StopBits
	}
	if !flags.Changed("receive-timeout") {
		opts.receiveTimeout = cfg.ReceiveTimeout
	}
	if !flags.Changed("wait-time") {
		opts.waitTime = cfg.WaitTime
	}
	if !flags.Changed("output-format") {
		opts.outputFormat = cfg.OutputFormat
	}
	if !flags.Changed("log-file") {
		opts.logFile = cfg.LogFile
	}
}

// buildTransaction turns the merged options into a validated port
// configuration and transaction. It performs no device I/O.
func buildTransaction(opts options) (port.Config, bridge.Transaction, error) {
	portConfig := port.Config{
		Device:   opts.portName,
		BaudRate: opts.baudRate,
		DataBits: opts.dataBits,
		StopBits: opts.stopBits,
	}
	if opts.portName == "" {
		return portConfig, bridge.Transaction{}, errors.New("no serial port given, use --port or --list")
	}
	parity, err := port.ParseParity(opts.parity)
	if err != nil {
		return portConfig, bridge.Transaction{}, err
	}
	portConfig.Parity = parity
	if err := portConfig.Validate(); err != nil {
		return portConfig, bridge.Transaction{}, err
	}

	switch opts.outputFormat {
	case "text", "hex", "json":
	default:
		return portConfig, bridge.Transaction{}, fmt.Errorf("invalid output format %q (use text, hex, or json)", opts.outputFormat)
	}
	if opts.receiveTimeout < 0 {
		return portConfig, bridge.Transaction{}, fmt.Errorf("receive timeout %g must not be negative", opts.receiveTimeout)
	}
	if opts.waitTime < 0 {
		return portConfig, bridge.Transaction{}, fmt.Errorf("wait time %g must not be negative", opts.waitTime)
	}

	payload, err := buildPayload(opts)
	if err != nil {
		return portConfig, bridge.Transaction{}, err
	}

	tx := bridge.Transaction{
		Payload: payload,
		// A reply is read after every send, --receive only matters for
		// receive-only invocations.
		Receive:        opts.receive || payload != nil,
		SettleTime:     secondsToDuration(opts.waitTime),
		ReceiveTimeout: secondsToDuration(opts.receiveTimeout),
	}
	return portConfig, tx, nil
}

// buildPayload decodes the payload from exactly one of the send flags. More
// than one send encoding at once is a configuration error.
func buildPayload(opts options) ([]byte, error) {
	given := 0
	for _, flag := range []string{opts.send, opts.sendHex, opts.sendBytes} {
		if flag != "" {
			given++
		}
	}
	if given > 1 {
		return nil, errors.New("use only one of --send, --send-hex, --send-bytes")
	}

	switch {
	case opts.send != "":
		return []byte(render.ExpandEscapes(opts.send)), nil
	case opts.sendHex != "":
		payload, err := render.HexToBinary(opts.sendHex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload %q: %v", opts.sendHex, err)
		}
		return payload, nil
	case opts.sendBytes != "":
		return render.BytesFromList(opts.sendBytes)
	}
	return nil, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
