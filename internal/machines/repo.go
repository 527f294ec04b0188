package machines

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Repository manages persistence for registered machines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, machine *models.Machine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
	List(ctx context.Context) ([]models.Machine, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MachineStatus) error
	TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a machine repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, machine *models.Machine) error {
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error) {
	var machine models.Machine
	if err := r.db.WithContext(ctx).First(&machine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *repository) List(ctx context.Context) ([]models.Machine, error) {
	var rows []models.Machine
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MachineStatus) error {
	return r.db.WithContext(ctx).Model(&models.Machine{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Machine{}).
		Where("id = ?", id).
		Update("last_seen_at", seenAt).Error
}
