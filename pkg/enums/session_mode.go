package enums

import "fmt"

// SessionMode records how a session was activated.
type SessionMode string

const (
	SessionModeMember SessionMode = "member"
	SessionModeGuest  SessionMode = "guest"
)

var validSessionModes = []SessionMode{
	SessionModeMember,
	SessionModeGuest,
}

// IsValid reports whether the value is a known SessionMode.
func (m SessionMode) IsValid() bool {
	for _, candidate := range validSessionModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseSessionMode converts raw input into a SessionMode.
func ParseSessionMode(value string) (SessionMode, error) {
	for _, candidate := range validSessionModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session mode %q", value)
}
