package deposits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Repository manages persistence for waste deposits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deposit *models.Deposit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	// ApplyClassification stores the verdict and moves pending to processing
	// in one guarded update. Zero rows means the deposit already left pending.
	ApplyClassification(ctx context.Context, id uuid.UUID, result Classification) (int64, error)
	// MarkCompleted moves processing to completed, guarded by status.
	MarkCompleted(ctx context.Context, id uuid.UUID, processedAt time.Time) (int64, error)
	// MarkRejected moves processing to rejected, guarded by status.
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, processedAt time.Time) (int64, error)
}

// Classification is the persisted outcome of a scorer call.
type Classification struct {
	Category     enums.WasteCategory
	QualityGrade enums.QualityGrade
	Confidence   int
	RewardAmount int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a deposit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.WithContext(ctx).First(&deposit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) ApplyClassification(ctx context.Context, id uuid.UUID, result Classification) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusPending).
		Updates(map[string]any{
			"category":      result.Category,
			"quality_grade": result.QualityGrade,
			"confidence":    result.Confidence,
			"reward_amount": result.RewardAmount,
			"status":        enums.DepositStatusProcessing,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, processedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusProcessing).
		Updates(map[string]any{
			"status":       enums.DepositStatusCompleted,
			"processed_at": processedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, processedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusProcessing).
		Updates(map[string]any{
			"status":           enums.DepositStatusRejected,
			"rejection_reason": reason,
			"processed_at":     processedAt,
		})
	return res.RowsAffected, res.Error
}
