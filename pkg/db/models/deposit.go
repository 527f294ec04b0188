package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Deposit is one waste intake event awaiting classification and settlement.
// RewardAmount is immutable once the status reaches completed.
type Deposit struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID       *uuid.UUID          `gorm:"column:account_id;type:uuid"`
	MachineID       uuid.UUID           `gorm:"column:machine_id;type:uuid;not null"`
	SessionToken    *string             `gorm:"column:session_token"`
	Category        enums.WasteCategory `gorm:"column:category;type:waste_category_enum;not null;default:'unknown'"`
	Weight          decimal.Decimal     `gorm:"column:weight;type:numeric(10,3);not null"`
	Quantity        int                 `gorm:"column:quantity;not null;default:1"`
	QualityGrade    enums.QualityGrade  `gorm:"column:quality_grade;type:quality_grade_enum;not null;default:'D'"`
	Confidence      int                 `gorm:"column:confidence;not null;default:0"`
	RewardAmount    int64               `gorm:"column:reward_amount;not null;default:0"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'IDR'"`
	Status          enums.DepositStatus `gorm:"column:status;type:deposit_status_enum;not null;default:'pending'"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	ProcessedAt     *time.Time          `gorm:"column:processed_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGuest reports whether the deposit has no account to credit.
func (d *Deposit) IsGuest() bool {
	return d.AccountID == nil
}
