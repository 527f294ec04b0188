package machines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
)

// Service exposes operations over the machine registry.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Machine, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
	List(ctx context.Context) ([]models.Machine, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.MachineStatus) error
	Heartbeat(ctx context.Context, id uuid.UUID) error
}

// RegisterInput captures the fields required to register a machine.
type RegisterInput struct {
	Name               string
	LocationLabel      string
	AcceptedCategories []enums.WasteCategory
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a machine service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Machine, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine name required")
	}
	if input.LocationLabel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location label required")
	}

	accepted := make([]string, 0, len(input.AcceptedCategories))
	for _, category := range input.AcceptedCategories {
		if !category.IsValid() || category == enums.WasteCategoryUnknown {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid accepted category %q", category))
		}
		accepted = append(accepted, string(category))
	}

	machine := &models.Machine{
		Name:               input.Name,
		LocationLabel:      input.LocationLabel,
		Status:             enums.MachineStatusActive,
		AcceptedCategories: accepted,
	}
	if err := s.repo.Create(ctx, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Machine, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine id required")
	}
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, err
	}
	return machine, nil
}

func (s *service) List(ctx context.Context) ([]models.Machine, error) {
	return s.repo.List(ctx)
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.MachineStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "machine id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid machine status %q", status))
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *service) Heartbeat(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "machine id required")
	}
	return s.repo.TouchLastSeen(ctx, id, s.now())
}
