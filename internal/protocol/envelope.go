package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingEvent is returned by Decode for a frame without an event name.
var ErrMissingEvent = errors.New("frame has no event")

// Envelope is the frame carried in both directions.
//
// A client that wants a reply sets Ack; the server answers with an
// EventAck frame carrying the same Ack value.
type Envelope struct {
	Event string          `json:"event"`
	Ack   *int64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WantsAck reports whether the client asked for an acknowledgement.
func (e Envelope) WantsAck() bool {
	return e.Ack != nil
}

// Decode parses one inbound frame.
//
// Postcondition: On success, Event is non-empty.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// DecodeData unmarshals the envelope payload into v. An absent payload
// leaves v at its zero value.
func DecodeData(env Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", env.Event, err)
	}
	return nil
}

// Encode builds an outbound event frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// EncodeAck builds the reply to an inbound frame that carried ack.
func EncodeAck(ack int64, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding ack %d payload: %w", ack, err)
	}
	return json.Marshal(Envelope{Event: EventAck, Ack: &ack, Data: raw})
}
