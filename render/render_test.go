package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestExpandEscapes(t *testing.T) {
	tt := []struct {
		desc     string
		value    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"crlf", `AT\r\n`, "AT\r\n"},
		{"tab", `a\tb`, "a\tb"},
		{"literal backslash", `a\\r`, `a\r`},
		{"unknown sequence kept", `a\x41`, `a\x41`},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExpandEscapes(tc.value))
		})
	}
}

func TestBytesFromList(t *testing.T) {
	tt := []struct {
		desc     string
		value    string
		expected []byte
		invalid  bool
	}{
		{"simple", "[255,0,170]", []byte{0xff, 0x00, 0xaa}, false},
		{"empty list", "[]", []byte{}, false},
		{"spaces", "[1, 2, 3]", []byte{1, 2, 3}, false},
		{"out of range", "[256]", nil, true},
		{"negative", "[-1]", nil, true},
		{"not a list", "255", nil, true},
		{"garbage", "[a,b]", nil, true},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			actual, err := BytesFromList(tc.value)
			if tc.invalid {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "OK\r\n", Text([]byte("OK\r\n")))
	assert.Equal(t, "a�b", Text([]byte{'a', 0xff, 'b'}))
}

func TestDisplayText(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("串口"))
	assert.NoError(t, err)

	tt := []struct {
		desc             string
		value            []byte
		expected         string
		expectedEncoding string
	}{
		{"plain ascii", []byte("OK"), "OK", "UTF-8"},
		{"utf8", []byte("串口"), "串口", "UTF-8"},
		{"gbk", gbk, "串口", "GBK"},
		{"binary", []byte{0xff, 0x00}, "FF00", "HEX"},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			actual, encoding := DisplayText(tc.value)
			assert.Equal(t, tc.expected, actual)
			assert.Equal(t, tc.expectedEncoding, encoding)
		})
	}
}
