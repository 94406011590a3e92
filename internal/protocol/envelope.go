// Package protocol defines the wire shape of the realtime event
// protocol: a JSON envelope carrying an event name plus an event-specific
// payload. Inbound payloads form a closed set; anything that does not
// decode into a known shape is logged and dropped by the dispatcher.
package protocol

import "encoding/json"

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses the outer envelope only; payload decoding happens per
// event at the dispatch boundary.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Encode builds a complete outbound frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
