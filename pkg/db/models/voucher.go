package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a redeemable reward item with limited stock.
type Voucher struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Description   *string   `gorm:"column:description"`
	Cost          int64     `gorm:"column:cost;not null"`
	Stock         int       `gorm:"column:stock;not null"`
	TotalRedeemed int       `gorm:"column:total_redeemed;not null;default:0"`
	ValidFrom     time.Time `gorm:"column:valid_from;not null"`
	ValidUntil    time.Time `gorm:"column:valid_until;not null"`
	Active        bool      `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RedeemableAt reports whether the voucher is active and inside its window.
func (v *Voucher) RedeemableAt(now time.Time) bool {
	if !v.Active {
		return false
	}
	return !now.Before(v.ValidFrom) && !now.After(v.ValidUntil)
}
