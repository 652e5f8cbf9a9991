package bridge

import (
	"io"
	"sync"
	"time"
)

// NewInMemory creates an in-memory serial device for testing. Its Read
// mimics a port opened with a bounded inter-character timeout: it waits up
// to pollWindow for data and returns (0, io.EOF) when none arrived.
func NewInMemory(pollWindow time.Duration) *InMemory {
	return &InMemory{
		pollWindow: pollWindow,
		lock:       new(sync.Mutex),
		closed:     make(chan struct{}),
	}
}

// InMemory is an io.ReadWriteCloser backed by two byte buffers. Feed
// provides the bytes future Reads will yield; Written returns everything
// the code under test wrote.
type InMemory struct {
	pollWindow  time.Duration
	lock        *sync.Mutex
	readBuffer  []byte
	writeBuffer []byte
	closed      chan struct{}
	failWrites  bool
	shortWrites bool
}

// Feed appends bytes to the read buffer.
func (rw *InMemory) Feed(p []byte) {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	rw.readBuffer = append(rw.readBuffer, p...)
}

// FeedAfter appends bytes to the read buffer after the given delay.
func (rw *InMemory) FeedAfter(delay time.Duration, p []byte) {
	go func() {
		time.Sleep(delay)
		rw.Feed(p)
	}()
}

// Written returns a copy of everything written to the device so far.
func (rw *InMemory) Written() []byte {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	result := make([]byte, len(rw.writeBuffer))
	copy(result, rw.writeBuffer)
	return result
}

// FailWrites makes every subsequent Write return an error.
func (rw *InMemory) FailWrites() {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	rw.failWrites = true
}

// ShortWrites makes every subsequent Write accept only half of its input.
func (rw *InMemory) ShortWrites() {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	rw.shortWrites = true
}

func (rw *InMemory) Read(p []byte) (int, error) {
	deadline := time.Now().Add(rw.pollWindow)
	for {
		select {
		case <-rw.closed:
			return 0, io.ErrClosedPipe
		default:
		}

		rw.lock.Lock()
		if len(rw.readBuffer) > 0 {
			n := copy(p, rw.readBuffer)
			rw.readBuffer = rw.readBuffer[n:]
			rw.lock.Unlock()
			return n, nil
		}
		rw.lock.Unlock()

		if !time.Now().Before(deadline) {
			return 0, io.EOF
		}
		time.Sleep(time.Millisecond)
	}
}

func (rw *InMemory) Write(p []byte) (int, error) {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	if rw.failWrites {
		return 0, io.ErrClosedPipe
	}
	if rw.shortWrites {
		n := len(p) / 2
		rw.writeBuffer = append(rw.writeBuffer, p[:n]...)
		return n, nil
	}
	rw.writeBuffer = append(rw.writeBuffer, p...)
	return len(p), nil
}

// Close releases the device. Close is idempotent; Reads after Close fail.
func (rw *InMemory) Close() error {
	select {
	case <-rw.closed:
	default:
		close(rw.closed)
	}
	return nil
}
