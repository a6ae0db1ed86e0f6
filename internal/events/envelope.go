package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Event types emitted by the engine itself.
const (
	TypeConnected          = "connected"
	TypeDeadlineUpdated    = "deadline-updated"
	TypeDeadlinePassed     = "deadline-passed"
	TypeEventStatusUpdated = "event-status-updated"
)

var ErrMalformedEnvelope = errors.New("malformed event envelope")

// Envelope is the wire shape of a notification: a type tag plus an
// optional opaque payload. Data is kept as raw JSON and never inspected.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an envelope for internal publishers. A nil data
// value produces an envelope without a payload.
func NewEnvelope(typ string, data any) (Envelope, error) {
	env := Envelope{Type: typ}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		env.Data = b
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (e Envelope) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrMalformedEnvelope)
	}
	return nil
}

// Frame renders the envelope as a single SSE data frame.
func (e Envelope) Frame() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(b) + 8)
	buf.WriteString("data: ")
	buf.Write(b)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// candidate mirrors Envelope but lets us tell a missing or mistyped
// field apart from an empty one.
type candidate struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope parses an externally submitted envelope. Every failure
// that is the caller's fault wraps ErrMalformedEnvelope; read failures
// are returned as-is.
func DecodeEnvelope(r io.Reader) (Envelope, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("read envelope: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Envelope{}, fmt.Errorf("%w: body must be a JSON object", ErrMalformedEnvelope)
	}

	var c candidate
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&c); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if dec.More() {
		return Envelope{}, fmt.Errorf("%w: trailing data", ErrMalformedEnvelope)
	}
	if c.Type == nil {
		return Envelope{}, fmt.Errorf("%w: type is required", ErrMalformedEnvelope)
	}

	env := Envelope{Type: *c.Type}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}

	if len(c.Data) > 0 && !bytes.Equal(c.Data, []byte("null")) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, c.Data); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		env.Data = compact.Bytes()
	}
	return env, nil
}
