package vouchers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
)

// Repository manages persistence for vouchers and redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, voucher *models.Voucher) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	// ListRedeemable returns active vouchers whose validity window covers now.
	ListRedeemable(ctx context.Context, now time.Time) ([]models.Voucher, error)
	IncrementRedeemed(ctx context.Context, id uuid.UUID) error
	FindRedemption(ctx context.Context, accountID, voucherID uuid.UUID) (*models.Redemption, error)
	CreateRedemption(ctx context.Context, redemption *models.Redemption) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a voucher repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&voucher, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) ListRedeemable(ctx context.Context, now time.Time) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	err := r.db.WithContext(ctx).
		Where("active AND valid_from <= ? AND valid_until >= ?", now, now).
		Order("valid_until ASC").
		Find(&vouchers).Error
	return vouchers, err
}

func (r *repository) IncrementRedeemed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("id = ?", id).
		UpdateColumn("total_redeemed", gorm.Expr("total_redeemed + 1")).Error
}

func (r *repository) FindRedemption(ctx context.Context, accountID, voucherID uuid.UUID) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.db.WithContext(ctx).
		First(&redemption, "account_id = ? AND voucher_id = ?", accountID, voucherID).Error
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}
