package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// SessionClaimedEvent is emitted when a member binds a pending session.
type SessionClaimedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	MachineID uuid.UUID `json:"machine_id"`
	AccountID uuid.UUID `json:"account_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// SessionGuestActivatedEvent is emitted when a session enters guest mode.
type SessionGuestActivatedEvent struct {
	SessionID   uuid.UUID `json:"session_id"`
	MachineID   uuid.UUID `json:"machine_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

// SessionExpiredEvent reports a sweep or lazy expiry of a pending session.
type SessionExpiredEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	MachineID uuid.UUID `json:"machine_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// DepositSettledEvent surfaces the final classification and credited reward.
type DepositSettledEvent struct {
	DepositID    uuid.UUID           `json:"deposit_id"`
	MachineID    uuid.UUID           `json:"machine_id"`
	AccountID    *uuid.UUID          `json:"account_id,omitempty"`
	Category     enums.WasteCategory `json:"category"`
	QualityGrade enums.QualityGrade  `json:"quality_grade"`
	RewardAmount int64               `json:"reward_amount"`
	Currency     enums.Currency      `json:"currency"`
	SettledAt    time.Time           `json:"settled_at"`
}

// DepositRejectedEvent is emitted when settlement refuses a deposit.
type DepositRejectedEvent struct {
	DepositID  uuid.UUID  `json:"deposit_id"`
	MachineID  uuid.UUID  `json:"machine_id"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	Reason     string     `json:"reason"`
	RejectedAt time.Time  `json:"rejected_at"`
}

// VoucherRedeemedEvent tells downstream systems a redemption code was issued.
type VoucherRedeemedEvent struct {
	RedemptionID uuid.UUID `json:"redemption_id"`
	VoucherID    uuid.UUID `json:"voucher_id"`
	AccountID    uuid.UUID `json:"account_id"`
	Code         string    `json:"code"`
	Cost         int64     `json:"cost"`
	RedeemedAt   time.Time `json:"redeemed_at"`
}
