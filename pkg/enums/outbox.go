package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSession    OutboxAggregateType = "session"
	AggregateDeposit    OutboxAggregateType = "deposit"
	AggregateRedemption OutboxAggregateType = "redemption"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSession,
	AggregateDeposit,
	AggregateRedemption,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventSessionClaimed        OutboxEventType = "session_claimed"
	EventSessionGuestActivated OutboxEventType = "session_guest_activated"
	EventSessionExpired        OutboxEventType = "session_expired"
	EventDepositSettled        OutboxEventType = "deposit_settled"
	EventDepositRejected       OutboxEventType = "deposit_rejected"
	EventVoucherRedeemed       OutboxEventType = "voucher_redeemed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSessionClaimed,
	EventSessionGuestActivated,
	EventSessionExpired,
	EventDepositSettled,
	EventDepositRejected,
	EventVoucherRedeemed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
