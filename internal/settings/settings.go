// Package settings holds the admin-editable event settings: team size,
// submission deadline and the event/track switches.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTeamSize = 5
	MinTeamSize     = 2
)

var ErrInvalidPatch = errors.New("invalid settings patch")

type Settings struct {
	TeamSize      int        `json:"teamSize"`
	Deadline      *time.Time `json:"deadline"`
	EventStarted  bool       `json:"eventStarted"`
	EventEnded    bool       `json:"eventEnded"`
	TracksEnabled bool       `json:"tracksEnabled"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func Default() Settings {
	return Settings{TeamSize: DefaultTeamSize}
}

// OptionalTime distinguishes an absent field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
	raw   string
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	o.raw = ""
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("deadline must be a string or null")
	}
	o.raw = s
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		o.Value = &t
	}
	return nil
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	TeamSize      *int         `json:"teamSize"`
	Deadline      OptionalTime `json:"deadline"`
	EventStarted  *bool        `json:"eventStarted"`
	EventEnded    *bool        `json:"eventEnded"`
	TracksEnabled *bool        `json:"tracksEnabled"`
}

// DecodePatch parses a JSON object into a Patch. Anything other than a
// single object with known fields is rejected.
func DecodePatch(b []byte) (Patch, error) {
	if t := bytes.TrimSpace(b); len(t) == 0 || t[0] != '{' {
		return Patch{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidPatch)
	}
	var p Patch
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if dec.More() {
		return Patch{}, fmt.Errorf("%w: trailing data", ErrInvalidPatch)
	}
	return p, nil
}

// Apply returns cur with every field present in p overwritten.
func (p Patch) Apply(cur Settings) Settings {
	out := cur
	if p.TeamSize != nil {
		out.TeamSize = *p.TeamSize
	}
	if p.Deadline.Set {
		out.Deadline = p.Deadline.Value
	}
	if p.EventStarted != nil {
		out.EventStarted = *p.EventStarted
	}
	if p.EventEnded != nil {
		out.EventEnded = *p.EventEnded
	}
	if p.TracksEnabled != nil {
		out.TracksEnabled = *p.TracksEnabled
	}
	return out
}

// StatusChanged reports whether applying p flips eventStarted or eventEnded.
func (p Patch) StatusChanged(cur Settings) bool {
	return (p.EventStarted != nil && *p.EventStarted != cur.EventStarted) ||
		(p.EventEnded != nil && *p.EventEnded != cur.EventEnded)
}
