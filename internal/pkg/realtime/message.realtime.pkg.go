package realtime

import (
	"encoding/json"
	"fmt"
)

// Envelope is an outbound frame.
type Envelope struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Message   any    `json:"message,omitempty"`
}

// Push is an inbound frame as the order backend sends it.
type Push struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func DecodePush(raw []byte) (*Push, error) {
	var p Push
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if p.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return &p, nil
}

// DecodeData unmarshals the push payload into T.
func DecodeData[T any](p *Push) (*T, error) {
	var out T
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("%w: %s has no data", ErrMalformedFrame, p.Type)
	}
	if err := json.Unmarshal(p.Data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &out, nil
}
