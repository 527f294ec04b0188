package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	"github.com/adityarahmanda/trashpoint-backend/pkg/pagination"
)

// Repository manages persistence for balances and ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBalance(ctx context.Context, accountID uuid.UUID) (*models.Balance, error)
	// FindBalanceForUpdate locks the balance row for the rest of the
	// transaction, serializing mutations per account.
	FindBalanceForUpdate(ctx context.Context, accountID uuid.UUID) (*models.Balance, error)
	CreateBalance(ctx context.Context, balance *models.Balance) error
	UpdateBalanceAmount(ctx context.Context, id uuid.UUID, amount int64) error
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, kind *enums.LedgerEntryKind, limit int) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBalance(ctx context.Context, accountID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	if err := r.db.WithContext(ctx).First(&balance, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) FindBalanceForUpdate(ctx context.Context, accountID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&balance, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) CreateBalance(ctx context.Context, balance *models.Balance) error {
	return r.db.WithContext(ctx).Create(balance).Error
}

func (r *repository) UpdateBalanceAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	return r.db.WithContext(ctx).Model(&models.Balance{}).
		Where("id = ?", id).
		Update("amount", amount).Error
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, kind *enums.LedgerEntryKind, limit int) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if kind != nil {
		q = q.Where("kind = ?", *kind)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LedgerEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
