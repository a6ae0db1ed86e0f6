package settings

import (
	"fmt"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// ValidatePatch checks p against the settings it will be applied to.
func ValidatePatch(p Patch, cur Settings, now time.Time) Validation {
	var res Validation

	if p.TeamSize != nil && *p.TeamSize < MinTeamSize {
		res.addErr("teamSize must be >= %d", MinTeamSize)
	}
	if p.Deadline.Set && p.Deadline.raw != "" && p.Deadline.Value == nil {
		res.addErr("deadline %q is not an RFC3339 timestamp", p.Deadline.raw)
	}

	next := p.Apply(cur)
	if next.EventEnded && !next.EventStarted {
		res.addWarn("eventEnded is true while eventStarted is false")
	}
	if p.Deadline.Value != nil && p.Deadline.Value.Before(now) {
		res.addWarn("deadline %s is already in the past", p.Deadline.Value.Format(time.RFC3339))
	}

	return res
}

// ValidationError carries a failed Validation through error returns.
type ValidationError struct {
	Validation Validation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed: %v", e.Validation.Errors)
}
