// The package render converts between the payload representations used on
// the command line, on stdout, and in the transcript log: raw text with
// escape sequences, hexadecimal strings, explicit byte lists, and the
// machine-parsable outcome record.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var escapeReplacer = strings.NewReplacer(
	`\\`, "\\",
	`\r`, "\r",
	`\n`, "\n",
	`\t`, "\t",
)

// ExpandEscapes replaces the literal escape sequences \r, \n, \t, and \\ in
// a command-line payload string with the bytes they denote.
func ExpandEscapes(s string) string {
	return escapeReplacer.Replace(s)
}

// BytesFromList decodes an explicit byte list such as "[255,0,170]" into a
// slice of bytes. Each element must be in the range 0..255.
func BytesFromList(s string) ([]byte, error) {
	var values []int
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("invalid byte list %q: %w", s, err)
	}
	result := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte list value %d out of range 0..255", v)
		}
		result[i] = byte(v)
	}
	return result, nil
}

// Text renders bytes as UTF-8 text, replacing undecodable sequences with the
// Unicode replacement character instead of failing.
func Text(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// DisplayText renders bytes for a human operator: valid UTF-8 is shown as
// is, otherwise a GBK interpretation is attempted, otherwise the bytes are
// shown as hex. The second return value names the rendering that was used.
func DisplayText(data []byte) (string, string) {
	if utf8.Valid(data) {
		return string(data), "UTF-8"
	}
	// The GBK decoder substitutes the replacement character instead of
	// reporting invalid input, so check the output for it.
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err == nil && !strings.ContainsRune(string(decoded), utf8.RuneError) {
		return string(decoded), "GBK"
	}
	return BinaryToHex(data), "HEX"
}
