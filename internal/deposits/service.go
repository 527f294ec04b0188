package deposits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/internal/classify"
	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/internal/rewards"
	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/metrics"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox/payloads"
)

// Intake bounds for a single deposit.
var (
	maxDepositWeightKG = decimal.NewFromInt(50)
	maxDepositQuantity = 100
)

// Decision is the settlement verdict on a processing deposit.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type machineLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type sessionLoader interface {
	FindByToken(ctx context.Context, token string) (*models.Session, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerCrediter interface {
	Credit(ctx context.Context, tx *gorm.DB, input ledger.MutationInput) (*models.LedgerEntry, error)
}

// IntakeInput is a machine's raw observation of one deposit.
type IntakeInput struct {
	MachineID        uuid.UUID
	SessionToken     *string
	DeclaredCategory *enums.WasteCategory
	Weight           decimal.Decimal
	Quantity         int
}

// FinalizeInput carries the settlement verdict.
type FinalizeInput struct {
	Decision Decision
	Reason   string
}

// Service runs the deposit settlement pipeline.
type Service interface {
	Intake(ctx context.Context, input IntakeInput) (*models.Deposit, error)
	// RunClassification grades a pending deposit and moves it to processing.
	// Scorer failures degrade to the lowest verdict instead of failing.
	RunClassification(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error)
	Finalize(ctx context.Context, depositID uuid.UUID, input FinalizeInput) (*models.Deposit, error)
	GetByID(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error)
}

type service struct {
	tx         txRunner
	repo       Repository
	machines   machineLoader
	sessions   sessionLoader
	classifier classify.Classifier
	ledger     ledgerCrediter
	outbox     outboxPublisher
	table      rewards.Table
	metrics    *metrics.SettlementMetrics
	logg       *logger.Logger
	guestAcct  *uuid.UUID
	now        func() time.Time
}

// NewService wires the settlement pipeline. Metrics are optional.
func NewService(
	tx txRunner,
	repo Repository,
	machines machineLoader,
	sessions sessionLoader,
	classifier classify.Classifier,
	ledgerSvc ledgerCrediter,
	publisher outboxPublisher,
	table rewards.Table,
	settlement *metrics.SettlementMetrics,
	logg *logger.Logger,
	cfg config.RewardsConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("deposit repository required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine loader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session loader required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("reward table: %w", err)
	}

	var guestAcct *uuid.UUID
	if cfg.GuestAccountID != "" {
		parsed, err := uuid.Parse(cfg.GuestAccountID)
		if err != nil {
			return nil, fmt.Errorf("guest account id: %w", err)
		}
		guestAcct = &parsed
	}

	return &service{
		tx:         tx,
		repo:       repo,
		machines:   machines,
		sessions:   sessions,
		classifier: classifier,
		ledger:     ledgerSvc,
		outbox:     publisher,
		table:      table,
		metrics:    settlement,
		logg:       logg,
		guestAcct:  guestAcct,
		now:        time.Now,
	}, nil
}

func (s *service) Intake(ctx context.Context, input IntakeInput) (*models.Deposit, error) {
	if input.Weight.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if input.Weight.GreaterThan(maxDepositWeightKG) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("weight exceeds %s kg", maxDepositWeightKG))
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.Quantity > maxDepositQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds %d", maxDepositQuantity))
	}

	machine, err := s.machines.FindByID(ctx, input.MachineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading machine")
	}
	if machine.Status != enums.MachineStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "machine is not active")
	}
	if input.DeclaredCategory != nil {
		if !input.DeclaredCategory.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid waste category %q", *input.DeclaredCategory))
		}
		if !machine.Accepts(*input.DeclaredCategory) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("machine does not accept %s", *input.DeclaredCategory))
		}
	}

	var accountID *uuid.UUID
	if input.SessionToken != nil {
		session, err := s.sessions.FindByToken(ctx, *input.SessionToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading session")
		}
		if session.ExpiredAt(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeExpired, "session expired")
		}
		if session.State != enums.SessionStateClaimed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is not claimed")
		}
		if session.MachineID != input.MachineID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "session belongs to a different machine")
		}
		accountID = session.OwnerID
	}

	deposit := &models.Deposit{
		ID:           uuid.New(),
		AccountID:    accountID,
		MachineID:    input.MachineID,
		SessionToken: input.SessionToken,
		Category:     enums.WasteCategoryUnknown,
		Weight:       input.Weight,
		Quantity:     input.Quantity,
		QualityGrade: enums.QualityGradeLowest,
		Status:       enums.DepositStatusPending,
		Currency:     enums.CurrencyIDR,
	}
	if input.DeclaredCategory != nil {
		deposit.Category = *input.DeclaredCategory
	}
	if err := s.repo.Create(ctx, deposit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating deposit")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"deposit_id": deposit.ID.String(),
		"machine_id": deposit.MachineID.String(),
		"weight_kg":  deposit.Weight.String(),
	})
	s.logg.Info(logCtx, "deposit received")
	return deposit, nil
}

func (s *service) RunClassification(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error) {
	deposit, err := s.GetByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if deposit.Status != enums.DepositStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("deposit is %s, classification needs pending", deposit.Status))
	}

	// The scorer call holds no database lock: it can take seconds and retry.
	result, err := s.classifier.Classify(ctx, classify.Payload{
		DepositID: deposit.ID,
		MachineID: deposit.MachineID,
		Weight:    deposit.Weight,
		Quantity:  deposit.Quantity,
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"deposit_id": deposit.ID.String(),
			"error":      err.Error(),
		})
		s.logg.Warn(logCtx, "classifier unavailable, using degraded verdict")
		s.metrics.IncDegraded()
		result = classify.DegradedResult()
	}

	reward := rewards.Amount(s.table, result.Category, deposit.Weight, result.QualityGrade, result.Confidence)
	rows, err := s.repo.ApplyClassification(ctx, deposit.ID, Classification{
		Category:     result.Category,
		QualityGrade: result.QualityGrade,
		Confidence:   result.Confidence,
		RewardAmount: reward,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing classification")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit already classified")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"deposit_id":    deposit.ID.String(),
		"category":      result.Category,
		"quality_grade": result.QualityGrade,
		"confidence":    result.Confidence,
		"reward_amount": reward,
	})
	s.logg.Info(logCtx, "deposit classified")
	return s.GetByID(ctx, depositID)
}

func (s *service) Finalize(ctx context.Context, depositID uuid.UUID, input FinalizeInput) (*models.Deposit, error) {
	switch input.Decision {
	case DecisionAccept:
	case DecisionReject:
		if input.Reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid decision %q", input.Decision))
	}

	now := s.now()
	var settled *models.Deposit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deposit, err := repo.FindByIDForUpdate(ctx, depositID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "deposit not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking deposit")
		}
		if deposit.Status != enums.DepositStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("deposit is %s, finalize needs processing", deposit.Status))
		}

		if input.Decision == DecisionReject {
			if _, err := repo.MarkRejected(ctx, deposit.ID, input.Reason, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking deposit rejected")
			}
			deposit.Status = enums.DepositStatusRejected
			deposit.RejectionReason = &input.Reason
			deposit.ProcessedAt = &now
			settled = deposit
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventDepositRejected,
				AggregateType: enums.AggregateDeposit,
				AggregateID:   deposit.ID,
				Source:        &outbox.SourceRef{MachineID: &deposit.MachineID, AccountID: deposit.AccountID},
				Data: payloads.DepositRejectedEvent{
					DepositID:  deposit.ID,
					MachineID:  deposit.MachineID,
					AccountID:  deposit.AccountID,
					Reason:     input.Reason,
					RejectedAt: now,
				},
			})
		}

		if err := s.creditReward(ctx, tx, deposit); err != nil {
			return err
		}
		if _, err := repo.MarkCompleted(ctx, deposit.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking deposit completed")
		}
		deposit.Status = enums.DepositStatusCompleted
		deposit.ProcessedAt = &now
		settled = deposit
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositSettled,
			AggregateType: enums.AggregateDeposit,
			AggregateID:   deposit.ID,
			Source:        &outbox.SourceRef{MachineID: &deposit.MachineID, AccountID: deposit.AccountID},
			Data: payloads.DepositSettledEvent{
				DepositID:    deposit.ID,
				MachineID:    deposit.MachineID,
				AccountID:    deposit.AccountID,
				Category:     deposit.Category,
				QualityGrade: deposit.QualityGrade,
				RewardAmount: deposit.RewardAmount,
				Currency:     deposit.Currency,
				SettledAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if input.Decision == DecisionAccept {
		s.metrics.IncSettled(string(settled.Category), settled.RewardAmount)
	} else {
		s.metrics.IncRejected(input.Reason)
	}
	return settled, nil
}

// creditReward routes the reward to the deposit's account, the configured
// guest account, or nowhere. A failed credit aborts the whole transaction so
// the deposit stays processing and the caller can retry.
func (s *service) creditReward(ctx context.Context, tx *gorm.DB, deposit *models.Deposit) error {
	if deposit.RewardAmount <= 0 {
		s.logg.Info(s.logg.WithField(ctx, "deposit_id", deposit.ID.String()), "zero reward, nothing to credit")
		return nil
	}

	creditTo := deposit.AccountID
	if creditTo == nil {
		if s.guestAcct == nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"deposit_id":    deposit.ID.String(),
				"reward_amount": deposit.RewardAmount,
			})
			s.logg.Info(logCtx, "guest deposit reward discarded")
			return nil
		}
		creditTo = s.guestAcct
	}

	_, err := s.ledger.Credit(ctx, tx, ledger.MutationInput{
		AccountID:   *creditTo,
		Amount:      deposit.RewardAmount,
		Description: fmt.Sprintf("reward for %s deposit", deposit.Category),
		SourceKind:  enums.LedgerSourceDeposit,
		SourceID:    deposit.ID,
	})
	return err
}

func (s *service) GetByID(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error) {
	deposit, err := s.repo.FindByID(ctx, depositID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deposit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading deposit")
	}
	return deposit, nil
}
