package render

import "encoding/json"

// Outcome is the machine-parsable record of a single transaction, intended
// for an automated caller reading stdout.
type Outcome struct {
	Success     bool    `json:"success"`
	Sent        *string `json:"sent,omitempty"`
	SentHex     *string `json:"sent_hex,omitempty"`
	Received    *string `json:"received,omitempty"`
	ReceivedHex *string `json:"received_hex,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// NewOutcome builds an Outcome from the payloads of a finished transaction.
// sent is nil when there was no send phase; received is nil when there was
// no receive phase. An empty received slice (nothing arrived before the
// timeout) is reported as empty strings, not as absence.
func NewOutcome(sent, received []byte, receiveRequested bool) Outcome {
	result := Outcome{Success: true}
	if sent != nil {
		text := Text(sent)
		hexText := BinaryToHex(sent)
		result.Sent = &text
		result.SentHex = &hexText
	}
	if receiveRequested {
		text := Text(received)
		hexText := BinaryToHex(received)
		result.Received = &text
		result.ReceivedHex = &hexText
	}
	return result
}

// FailedOutcome builds an Outcome describing a failed transaction.
func FailedOutcome(err error) Outcome {
	return Outcome{Success: false, Error: err.Error()}
}

// JSON renders the outcome as a single JSON line.
func (o Outcome) JSON() string {
	data, err := json.Marshal(o)
	if err != nil {
		// Outcome contains only strings and a bool, marshalling cannot fail.
		panic(err)
	}
	return string(data)
}
