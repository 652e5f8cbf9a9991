package render

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutcome(t *testing.T) {
	outcome := NewOutcome([]byte("AT\r\n"), []byte("OK\r\n"), true)

	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Sent)
	assert.Equal(t, "AT\r\n", *outcome.Sent)
	require.NotNil(t, outcome.SentHex)
	assert.Equal(t, "41540D0A", *outcome.SentHex)
	require.NotNil(t, outcome.Received)
	assert.Equal(t, "OK\r\n", *outcome.Received)
	require.NotNil(t, outcome.ReceivedHex)
	assert.Equal(t, "4F4B0D0A", *outcome.ReceivedHex)
	assert.Empty(t, outcome.Error)
}

func TestNewOutcome_NothingReceived(t *testing.T) {
	outcome := NewOutcome([]byte("AT\r\n"), nil, true)

	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Received)
	assert.Equal(t, "", *outcome.Received)
}

func TestNewOutcome_SendOnly(t *testing.T) {
	outcome := NewOutcome([]byte{0xff}, nil, false)

	assert.True(t, outcome.Success)
	assert.Nil(t, outcome.Received)
	assert.Nil(t, outcome.ReceivedHex)
}

func TestNewOutcome_ReceiveOnly(t *testing.T) {
	outcome := NewOutcome(nil, []byte("pong"), true)

	assert.Nil(t, outcome.Sent)
	require.NotNil(t, outcome.Received)
	assert.Equal(t, "pong", *outcome.Received)
}

func TestOutcomeJSON(t *testing.T) {
	outcome := NewOutcome([]byte("AT\r\n"), []byte("OK\r\n"), true)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(outcome.JSON()), &decoded))

	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "AT\r\n", decoded["sent"])
	assert.Equal(t, "OK\r\n", decoded["received"])
	assert.NotContains(t, decoded, "error")
}

func TestFailedOutcomeJSON(t *testing.T) {
	outcome := FailedOutcome(errors.New("serial port unavailable: COM9"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(outcome.JSON()), &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "serial port unavailable: COM9", decoded["error"])
	assert.NotContains(t, decoded, "sent")
	assert.NotContains(t, decoded, "received")
}
