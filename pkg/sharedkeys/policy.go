package sharedkeys

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PolicyKind is the variant of a session timeout policy.
type PolicyKind string

const (
	// PolicyNever keeps the session unlocked indefinitely.
	PolicyNever PolicyKind = "never"
	// PolicyOnAppRestart locks the session when the application restarts.
	PolicyOnAppRestart PolicyKind = "onAppRestart"
	// PolicyAfter locks the session a fixed number of minutes after the last activity.
	PolicyAfter PolicyKind = "after"
	// PolicyCustom locks the session at an absolute instant.
	PolicyCustom PolicyKind = "custom"
)

// TimeoutPolicy decides when a user's session must be treated as locked.
// Its JSON form is {"type":"after","minutes":15}, {"type":"custom","date":"..."}
// or {"type":"never"} / {"type":"onAppRestart"}.
type TimeoutPolicy struct {
	Kind    PolicyKind
	Minutes int
	Date    time.Time
}

func Never() TimeoutPolicy { return TimeoutPolicy{Kind: PolicyNever} }
func OnAppRestart() TimeoutPolicy { return TimeoutPolicy{Kind: PolicyOnAppRestart} }

// After returns a policy that expires m minutes after the last activity.
func After(m int) TimeoutPolicy {
	return TimeoutPolicy{Kind: PolicyAfter, Minutes: m}
}

// Custom returns a policy that expires at date.
func Custom(date time.Time) TimeoutPolicy {
	return TimeoutPolicy{Kind: PolicyCustom, Date: date.UTC()}
}

// Duration returns the timeout length of an "after" policy.
func (p TimeoutPolicy) Duration() time.Duration {
	return time.Duration(p.Minutes) * time.Minute
}

// Computable reports whether the policy yields a deadline that can be
// evaluated from stored timestamps alone.
func (p TimeoutPolicy) Computable() bool {
	return p.Kind == PolicyAfter || p.Kind == PolicyCustom
}

func (p TimeoutPolicy) Validate() error {
	switch p.Kind {
	case PolicyNever, PolicyOnAppRestart:
		return nil
	case PolicyAfter:
		if p.Minutes < 0 {
			return fmt.Errorf("%w: negative minutes %d", ErrInvalidPolicy, p.Minutes)
		}
		return nil
	case PolicyCustom:
		if p.Date.IsZero() {
			return fmt.Errorf("%w: custom policy without date", ErrInvalidPolicy)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, p.Kind)
	}
}

func (p TimeoutPolicy) String() string {
	switch p.Kind {
	case PolicyAfter:
		return fmt.Sprintf("after %dm", p.Minutes)
	case PolicyCustom:
		return "at " + p.Date.Format(time.RFC3339)
	default:
		return string(p.Kind)
	}
}

type policyJSON struct {
	Type    PolicyKind `json:"type"`
	Minutes *int       `json:"minutes,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

func (p TimeoutPolicy) MarshalJSON() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := policyJSON{Type: p.Kind}
	switch p.Kind {
	case PolicyAfter:
		m := p.Minutes
		out.Minutes = &m
	case PolicyCustom:
		d := p.Date.UTC()
		out.Date = &d
	}
	return json.Marshal(out)
}

func (p *TimeoutPolicy) UnmarshalJSON(data []byte) error {
	var in policyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Join(ErrMalformedPolicy, err)
	}

	decoded := TimeoutPolicy{Kind: in.Type}
	if in.Minutes != nil {
		decoded.Minutes = *in.Minutes
	}
	if in.Date != nil {
		decoded.Date = in.Date.UTC()
	}
	if in.Type == PolicyAfter && in.Minutes == nil {
		return fmt.Errorf("%w: after policy without minutes", ErrMalformedPolicy)
	}
	if err := decoded.Validate(); err != nil {
		return errors.Join(ErrMalformedPolicy, err)
	}

	*p = decoded
	return nil
}
