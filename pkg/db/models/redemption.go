package models

import (
	"time"

	"github.com/google/uuid"
)

// Redemption links an account to a voucher it has claimed. At most one
// redemption may exist per (account, voucher) pair.
type Redemption struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID        uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex:idx_redemptions_account_voucher"`
	VoucherID        uuid.UUID `gorm:"column:voucher_id;type:uuid;not null;uniqueIndex:idx_redemptions_account_voucher"`
	Code             string    `gorm:"column:code;uniqueIndex;not null"`
	CostAtRedemption int64     `gorm:"column:cost_at_redemption;not null"`
	RedeemedAt       time.Time `gorm:"column:redeemed_at;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
