// The package translog maintains the shared transcript of everything sent
// to and received from the serial device. The transcript is a plain text
// file that is only ever appended to: it is created lazily on the first
// write, opened in append mode for each record, and closed again right
// away, so concurrent invocations against different ports can interleave
// without coordination.
package translog

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultPath is the conventional transcript location in the working
// directory.
const DefaultPath = "serial_communication.log"

// Direction marks a record as sent to or received from the device.
type Direction string

// The direction arrows used in the transcript.
const (
	Outbound Direction = "--->"
	Inbound  Direction = "<---"
)

// Logger appends transcript records to a single file. The zero value is not
// usable, use New. A nil *Logger discards all records.
type Logger struct {
	path string
	now  func() time.Time
}

// New creates a Logger appending to the file at path. The file is not
// touched until the first record is written.
func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// SessionBanner appends a dated separator block marking the start of a new
// session on the given device.
func (l *Logger) SessionBanner(device string, baudRate int) error {
	if l == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "# serial transcript - %s\n", l.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "# port: %s, baudrate: %d\n", device, baudRate)
	b.WriteString("# format: [timestamp] [--->|<---] data\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	return l.append(b.String())
}

// Record appends one transcript entry for the given bytes. Printable text
// is logged line by line with empty lines dropped; anything else is logged
// as a single hex line. Bytes that render to nothing but whitespace produce
// no entry at all.
func (l *Logger) Record(dir Direction, data []byte) error {
	if l == nil || len(data) == 0 {
		return nil
	}
	timestamp := l.now().Format("15:04:05.000")

	if !printableText(data) {
		return l.append(fmt.Sprintf("[%s] [%s] HEX: %x\n", timestamp, dir, data))
	}

	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	var b strings.Builder
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] [%s] %s\n", timestamp, dir, strings.TrimRight(line, " \t"))
	}
	if b.Len() == 0 {
		return nil
	}
	return l.append(b.String())
}

func (l *Logger) append(text string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("append transcript %s: %w", l.path, err)
	}
	return nil
}

func printableText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
