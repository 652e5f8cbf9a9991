package render

import (
	"encoding/hex"
	"regexp"
	"strings"
)

var hexSanitizer = regexp.MustCompile(`\s+`)

// HexToBinary decodes a hexadecimal payload string into a slice of bytes.
// Whitespace is tolerated anywhere in the string; the remaining digits must
// have even length.
func HexToBinary(s string) ([]byte, error) {
	sanitized := hexSanitizer.ReplaceAllString(s, "")
	return hex.DecodeString(sanitized)
}

// BinaryToHex renders a slice of bytes as two uppercase hexadecimal digits
// per byte, concatenated without separators. BinaryToHex and HexToBinary are
// inverse to each other.
func BinaryToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}
