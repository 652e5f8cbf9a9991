package bridge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwprobe/serialfwd/translog"
)

const pollWindow = 5 * time.Millisecond

func newTranscript(t *testing.T) (*translog.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.log")
	return translog.New(path), path
}

func transcriptLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRun_SendOnly(t *testing.T) {
	device := NewInMemory(pollWindow)
	transcript, path := newTranscript(t)

	tx := DefaultTransaction()
	tx.Payload = []byte("AT\r\n")
	result, err := Run(context.Background(), device, tx, transcript)

	assert.NoError(t, err)
	assert.Equal(t, []byte("AT\r\n"), result.Sent)
	assert.Nil(t, result.Received)
	assert.Equal(t, []byte("AT\r\n"), device.Written())

	lines := transcriptLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[--->] AT")
}

func TestRun_SendReceive(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.FeedAfter(20*time.Millisecond, []byte("OK\r\n"))
	transcript, path := newTranscript(t)

	tx := Transaction{
		Payload:        []byte("AT\r\n"),
		Receive:        true,
		SettleTime:     time.Millisecond,
		ReceiveTimeout: 200 * time.Millisecond,
	}
	result, err := Run(context.Background(), device, tx, transcript)

	assert.NoError(t, err)
	assert.Equal(t, []byte("AT\r\n"), result.Sent)
	assert.Equal(t, []byte("OK\r\n"), result.Received)
	assert.True(t, result.TimedOut)

	lines := transcriptLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[--->] AT")
	assert.Contains(t, lines[1], "[<---] OK")
}

func TestRun_ReceiveAccumulatesChunks(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.Feed([]byte("chunk1 "))
	device.FeedAfter(30*time.Millisecond, []byte("chunk2"))

	tx := Transaction{Receive: true, ReceiveTimeout: 100 * time.Millisecond}
	result, err := Run(context.Background(), device, tx, nil)

	assert.NoError(t, err)
	assert.Equal(t, "chunk1 chunk2", string(result.Received))
	assert.True(t, result.TimedOut)
}

func TestRun_ReceiveNothingIsSuccess(t *testing.T) {
	device := NewInMemory(pollWindow)

	tx := Transaction{Receive: true, ReceiveTimeout: 30 * time.Millisecond}
	result, err := Run(context.Background(), device, tx, nil)

	assert.NoError(t, err)
	assert.Empty(t, result.Received)
	assert.True(t, result.TimedOut)
}

func TestRun_ReceiveTimeoutBelowFirstByte(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.FeedAfter(100*time.Millisecond, []byte("late"))

	tx := Transaction{Receive: true, ReceiveTimeout: 30 * time.Millisecond}
	result, err := Run(context.Background(), device, tx, nil)

	assert.NoError(t, err)
	assert.Empty(t, result.Received)
}

func TestRun_WriteFailureSkipsReceive(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.FailWrites()
	device.Feed([]byte("never read"))
	transcript, path := newTranscript(t)

	tx := Transaction{Payload: []byte("AT\r\n"), Receive: true, ReceiveTimeout: 50 * time.Millisecond}
	result, err := Run(context.Background(), device, tx, transcript)

	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Nil(t, result.Sent)
	assert.Nil(t, result.Received)
	assert.Empty(t, transcriptLines(t, path))
}

func TestRun_ShortWriteFails(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.ShortWrites()

	tx := Transaction{Payload: []byte("AT\r\n")}
	_, err := Run(context.Background(), device, tx, nil)

	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestRun_CancelKeepsPartialData(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.Feed([]byte("partial"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	tx := Transaction{Receive: true, ReceiveTimeout: 10 * time.Second}
	start := time.Now()
	result, err := Run(ctx, device, tx, nil)

	assert.NoError(t, err)
	assert.Equal(t, "partial", string(result.Received))
	assert.False(t, result.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_DeviceErrorEndsReceive(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.Feed([]byte("before close"))
	go func() {
		time.Sleep(30 * time.Millisecond)
		device.Close()
	}()

	tx := Transaction{Receive: true, ReceiveTimeout: 10 * time.Second}
	result, err := Run(context.Background(), device, tx, nil)

	assert.NoError(t, err)
	assert.Equal(t, "before close", string(result.Received))
	assert.False(t, result.TimedOut)
}

func TestRun_SendThenReceiveOrderInTranscript(t *testing.T) {
	device := NewInMemory(pollWindow)
	device.FeedAfter(10*time.Millisecond, []byte{0xde, 0xad})
	transcript, path := newTranscript(t)

	tx := Transaction{
		Payload:        []byte{0xbe, 0xef},
		Receive:        true,
		SettleTime:     time.Millisecond,
		ReceiveTimeout: 100 * time.Millisecond,
	}
	_, err := Run(context.Background(), device, tx, transcript)
	require.NoError(t, err)

	lines := transcriptLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[--->] HEX: beef")
	assert.Contains(t, lines[1], "[<---] HEX: dead")
}
