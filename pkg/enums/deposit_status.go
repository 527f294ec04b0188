package enums

import "fmt"

// DepositStatus tracks the settlement lifecycle of a deposit.
type DepositStatus string

const (
	DepositStatusPending    DepositStatus = "pending"
	DepositStatusProcessing DepositStatus = "processing"
	DepositStatusCompleted  DepositStatus = "completed"
	DepositStatusRejected   DepositStatus = "rejected"
)

var validDepositStatuses = []DepositStatus{
	DepositStatusPending,
	DepositStatusProcessing,
	DepositStatusCompleted,
	DepositStatusRejected,
}

// String implements fmt.Stringer.
func (d DepositStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DepositStatus.
func (d DepositStatus) IsValid() bool {
	for _, candidate := range validDepositStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status can never transition again.
func (d DepositStatus) IsTerminal() bool {
	return d == DepositStatusCompleted || d == DepositStatusRejected
}

// CanTransitionTo enforces the monotonic pending -> processing -> terminal order.
func (d DepositStatus) CanTransitionTo(next DepositStatus) bool {
	switch d {
	case DepositStatusPending:
		return next == DepositStatusProcessing
	case DepositStatusProcessing:
		return next == DepositStatusCompleted || next == DepositStatusRejected
	default:
		return false
	}
}

// ParseDepositStatus converts raw input into a DepositStatus.
func ParseDepositStatus(value string) (DepositStatus, error) {
	for _, candidate := range validDepositStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit status %q", value)
}
