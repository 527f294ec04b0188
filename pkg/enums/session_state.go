package enums

import "fmt"

// SessionState maps to the session_state_enum enum in Postgres.
type SessionState string

const (
	SessionStatePending SessionState = "pending"
	SessionStateClaimed SessionState = "claimed"
	SessionStateExpired SessionState = "expired"
)

var validSessionStates = []SessionState{
	SessionStatePending,
	SessionStateClaimed,
	SessionStateExpired,
}

// String implements fmt.Stringer.
func (s SessionState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionState.
func (s SessionState) IsValid() bool {
	for _, candidate := range validSessionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state can never transition again.
func (s SessionState) IsTerminal() bool {
	return s == SessionStateClaimed || s == SessionStateExpired
}

// ParseSessionState converts raw input into a SessionState.
func ParseSessionState(value string) (SessionState, error) {
	for _, candidate := range validSessionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session state %q", value)
}
