package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// LedgerEntry records an immutable balance mutation. Entries are append only;
// the signed sum of an account's entries reconstructs its balance exactly.
type LedgerEntry struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID     uuid.UUID              `gorm:"column:account_id;type:uuid;not null;index"`
	BalanceID     uuid.UUID              `gorm:"column:balance_id;type:uuid;not null"`
	Kind          enums.LedgerEntryKind  `gorm:"column:kind;type:ledger_entry_kind_enum;not null"`
	Amount        int64                  `gorm:"column:amount;not null"`
	BalanceBefore int64                  `gorm:"column:balance_before;not null"`
	BalanceAfter  int64                  `gorm:"column:balance_after;not null"`
	Description   string                 `gorm:"column:description;not null"`
	SourceKind    enums.LedgerSourceKind `gorm:"column:source_kind;type:ledger_source_kind_enum;not null"`
	SourceID      uuid.UUID              `gorm:"column:source_id;type:uuid;not null"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
