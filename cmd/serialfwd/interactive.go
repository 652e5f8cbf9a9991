package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hwprobe/serialfwd/bridge"
	"github.com/hwprobe/serialfwd/port"
	"github.com/hwprobe/serialfwd/render"
	"github.com/hwprobe/serialfwd/translog"
)

// runInteractive drives a human-operated loop over the same transaction
// contract as the one-shot mode: every command is one bridge.Run call.
// This is a debugging convenience, not part of the scriptable surface.
func runInteractive(ctx context.Context, portConfig port.Config, logFile string) error {
	transcript := translog.New(logFile)

	session, err := port.Open(portConfig)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := transcript.SessionBanner(portConfig.Device, portConfig.BaudRate); err != nil {
		log.Warn().Err(err).Msg("transcript not writable")
		transcript = nil
	}

	fmt.Printf("connected to %s at %d baud\n", portConfig.Device, portConfig.BaudRate)
	fmt.Println("commands:")
	fmt.Println("  send <text>     send text (\\r \\n expanded), show the reply")
	fmt.Println("  sendhex <hex>   send hex bytes, show the reply as hex")
	fmt.Println("  receive         read whatever arrives within one second")
	fmt.Println("  quit            exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for prompt(); scanner.Scan(); prompt() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case line == "receive":
			receiveAndShow(ctx, session, transcript, time.Second)
		case strings.HasPrefix(line, "send "):
			sendText(ctx, session, transcript, strings.TrimPrefix(line, "send "))
		case strings.HasPrefix(line, "sendhex "):
			sendHex(ctx, session, transcript, strings.TrimPrefix(line, "sendhex "))
		default:
			fmt.Println("unknown command")
		}
	}
	return scanner.Err()
}

func prompt() {
	fmt.Print("> ")
}

func sendText(ctx context.Context, session *port.Session, transcript *translog.Logger, text string) {
	tx := bridge.Transaction{
		Payload:        []byte(render.ExpandEscapes(text)),
		Receive:        true,
		SettleTime:     500 * time.Millisecond,
		ReceiveTimeout: 2 * time.Second,
	}
	result, err := bridge.Run(ctx, session, tx, transcript)
	if err != nil {
		fmt.Println("send failed:", err)
		return
	}
	fmt.Println("sent", len(result.Sent), "bytes")
	showReceived(result.Received)
}

func sendHex(ctx context.Context, session *port.Session, transcript *translog.Logger, hexText string) {
	payload, err := render.HexToBinary(hexText)
	if err != nil {
		fmt.Println("invalid hex string:", err)
		return
	}
	tx := bridge.Transaction{
		Payload:        payload,
		Receive:        true,
		SettleTime:     100 * time.Millisecond,
		ReceiveTimeout: 500 * time.Millisecond,
	}
	result, err := bridge.Run(ctx, session, tx, transcript)
	if err != nil {
		fmt.Println("send failed:", err)
		return
	}
	fmt.Println("sent", len(result.Sent), "bytes")
	if len(result.Received) == 0 {
		fmt.Println("no data received")
		return
	}
	fmt.Println("received (HEX):", render.BinaryToHex(result.Received))
}

func receiveAndShow(ctx context.Context, session *port.Session, transcript *translog.Logger, timeout time.Duration) {
	tx := bridge.Transaction{Receive: true, ReceiveTimeout: timeout}
	result, err := bridge.Run(ctx, session, tx, transcript)
	if err != nil {
		fmt.Println("receive failed:", err)
		return
	}
	showReceived(result.Received)
}

func showReceived(data []byte) {
	if len(data) == 0 {
		fmt.Println("no data received")
		return
	}
	text, encoding := render.DisplayText(data)
	fmt.Printf("received (%s): %s\n", encoding, text)
}
