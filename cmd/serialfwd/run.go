package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hwprobe/serialfwd/bridge"
	"github.com/hwprobe/serialfwd/port"
	"github.com/hwprobe/serialfwd/render"
	"github.com/hwprobe/serialfwd/translog"
)

// runList prints the serial devices visible on the host. An empty list is a
// successful outcome.
func runList(outputFormat string) error {
	devices, err := port.List()
	if err != nil {
		return fmt.Errorf("list serial devices: %w", err)
	}

	if outputFormat == "json" {
		data, err := json.Marshal(devices)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(devices) == 0 {
		fmt.Println("no serial devices found")
		return nil
	}
	for _, device := range devices {
		if device.Description == "" {
			fmt.Println(device.Path)
			continue
		}
		fmt.Printf("%s: %s\n", device.Path, device.Description)
	}
	return nil
}

// runTransaction executes one open/send/receive/close cycle and prints the
// result in the requested format. In json mode failures are also reported
// as an outcome record on stdout, so an automated caller never has to parse
// stderr.
func runTransaction(ctx context.Context, portConfig port.Config, tx bridge.Transaction, outputFormat, logFile string) error {
	transcript := translog.New(logFile)

	session, err := port.Open(portConfig)
	if err != nil {
		return reportFailure(outputFormat, err)
	}
	defer session.Close()
	log.Debug().Str("port", portConfig.Device).Int("baudrate", portConfig.BaudRate).Msg("serial port opened")

	if err := transcript.SessionBanner(portConfig.Device, portConfig.BaudRate); err != nil {
		log.Warn().Err(err).Msg("transcript not writable")
		transcript = nil
	}

	result, err := bridge.Run(ctx, session, tx, transcript)
	if err != nil {
		return reportFailure(outputFormat, err)
	}
	if result.Sent != nil {
		log.Debug().Int("bytes", len(result.Sent)).Msg("payload sent")
	}
	if tx.Receive {
		log.Debug().Int("bytes", len(result.Received)).Bool("timeout", result.TimedOut).Msg("receive phase done")
	}

	printResult(result, tx, outputFormat)
	return nil
}

func printResult(result bridge.Result, tx bridge.Transaction, outputFormat string) {
	switch outputFormat {
	case "json":
		fmt.Println(render.NewOutcome(result.Sent, result.Received, tx.Receive).JSON())
	case "hex":
		if tx.Receive {
			fmt.Println(render.BinaryToHex(result.Received))
		}
	default:
		if !tx.Receive {
			return
		}
		if len(result.Received) == 0 {
			fmt.Fprintln(os.Stderr, "no data received")
			return
		}
		fmt.Println(render.Text(result.Received))
	}
}

// reportFailure surfaces a runtime failure in the selected output encoding
// and passes the error on for the non-zero exit code.
func reportFailure(outputFormat string, err error) error {
	if outputFormat == "json" {
		fmt.Println(render.FailedOutcome(err).JSON())
	}
	return err
}
