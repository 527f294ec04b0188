package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Balance is the materialized current value of an account's ledger.
// Amount never goes negative at any committed state.
type Balance struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID      `gorm:"column:account_id;type:uuid;uniqueIndex;not null"`
	Amount    int64          `gorm:"column:amount;not null;default:0"`
	Currency  enums.Currency `gorm:"column:currency;type:text;not null;default:'IDR'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
