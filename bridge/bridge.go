// The package bridge executes a single send/receive transaction over an
// open serial device: write the payload in full, wait for the device to
// settle, then accumulate whatever arrives until the inactivity timeout
// elapses. Timeout is the only stop condition of the receive phase; there
// is no terminator detection.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hwprobe/serialfwd/translog"
)

// ErrWriteFailed is wrapped by Run when the payload could not be written in
// full. The receive phase is skipped in that case.
var ErrWriteFailed = errors.New("failed to write to serial port")

const (
	readBufferSize = 1024
	// pollInterval is the idle sleep between reads that yielded no data,
	// keeping the loop cooperative without burning CPU.
	pollInterval = 10 * time.Millisecond
)

// Transaction describes one send/receive exchange. A nil Payload skips the
// send phase, Receive false skips the receive phase.
type Transaction struct {
	Payload        []byte
	Receive        bool
	SettleTime     time.Duration
	ReceiveTimeout time.Duration
}

// DefaultTransaction returns a Transaction with the conventional settle
// time and receive timeout.
func DefaultTransaction() Transaction {
	return Transaction{
		SettleTime:     100 * time.Millisecond,
		ReceiveTimeout: 1 * time.Second,
	}
}

// Result holds the outcome of one transaction. TimedOut reports that the
// receive phase ended because the inactivity timeout elapsed rather than
// because the context was cancelled.
type Result struct {
	Sent     []byte
	Received []byte
	TimedOut bool
}

// Run executes the transaction on the given device. The send phase always
// completes (or fails) before the receive phase starts. Each phase records
// its bytes in the transcript in event order. Cancelling the context during
// the receive phase ends it early and keeps the bytes accumulated so far;
// an empty receive result is a normal outcome, not an error.
func Run(ctx context.Context, device io.ReadWriter, tx Transaction, transcript *translog.Logger) (Result, error) {
	result := Result{}

	if tx.Payload != nil {
		if err := send(device, tx.Payload, transcript); err != nil {
			return result, err
		}
		result.Sent = tx.Payload

		if tx.Receive && tx.SettleTime > 0 {
			sleep(ctx, tx.SettleTime)
		}
	}

	if tx.Receive {
		received, timedOut := receive(ctx, device, tx.ReceiveTimeout, transcript)
		result.Received = received
		result.TimedOut = timedOut
	}

	return result, nil
}

func send(device io.Writer, payload []byte, transcript *translog.Logger) error {
	n, err := device.Write(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n < len(payload) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteFailed, n, len(payload))
	}
	transcript.Record(translog.Outbound, payload)
	return nil
}

// receive accumulates bytes until no further bytes arrive for the given
// timeout. Every chunk restarts the inactivity deadline, so a slow but
// steady device is read to completion. A read yielding (0, io.EOF) counts
// as an empty poll, matching the timeout semantics of the underlying port.
func receive(ctx context.Context, device io.Reader, timeout time.Duration, transcript *translog.Logger) ([]byte, bool) {
	var received []byte
	buf := make([]byte, readBufferSize)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return received, false
		default:
		}

		n, err := device.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			received = append(received, chunk...)
			transcript.Record(translog.Inbound, chunk)
			deadline = time.Now().Add(timeout)
			continue
		}
		if err != nil && err != io.EOF {
			return received, false
		}
		sleep(ctx, pollInterval)
	}

	return received, true
}

func sleep(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
