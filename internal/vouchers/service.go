package vouchers

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	dbpkg "github.com/adityarahmanda/trashpoint-backend/pkg/db"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerDebiter interface {
	Debit(ctx context.Context, tx *gorm.DB, input ledger.MutationInput) (*models.LedgerEntry, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput describes a new voucher.
type CreateInput struct {
	Name        string
	Description *string
	Cost        int64
	Stock       int
	ValidFrom   time.Time
	ValidUntil  time.Time
}

// Service manages the voucher catalog and redemptions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Voucher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	ListRedeemable(ctx context.Context) ([]models.Voucher, error)
	// Redeem debits the voucher cost and issues a single-use code. Each
	// account may redeem a given voucher at most once.
	Redeem(ctx context.Context, accountID, voucherID uuid.UUID) (*models.Redemption, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger ledgerDebiter
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the voucher service.
func NewService(
	tx txRunner,
	repo Repository,
	ledgerSvc ledgerDebiter,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		ledger: ledgerSvc,
		outbox: publisher,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Voucher, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.Cost <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost must be positive")
	}
	if input.Stock < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be at least 1")
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validity window must not be empty")
	}

	voucher := &models.Voucher{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Cost:        input.Cost,
		Stock:       input.Stock,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		Active:      true,
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating voucher")
	}
	return voucher, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	voucher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading voucher")
	}
	return voucher, nil
}

func (s *service) ListRedeemable(ctx context.Context) ([]models.Voucher, error) {
	vouchers, err := s.repo.ListRedeemable(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing vouchers")
	}
	return vouchers, nil
}

func (s *service) Redeem(ctx context.Context, accountID, voucherID uuid.UUID) (*models.Redemption, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if voucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}

	now := s.now()
	var redemption *models.Redemption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		voucher, err := repo.FindByIDForUpdate(ctx, voucherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking voucher")
		}
		if !voucher.RedeemableAt(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "voucher is not redeemable")
		}
		if voucher.TotalRedeemed >= voucher.Stock {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "voucher is out of stock")
		}
		if _, err := repo.FindRedemption(ctx, accountID, voucherID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "voucher already redeemed")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking prior redemption")
		}

		// The redemption id is minted up front so the debit's ledger entry
		// points at the redemption row, not the voucher.
		redemptionID := uuid.New()
		if _, err := s.ledger.Debit(ctx, tx, ledger.MutationInput{
			AccountID:   accountID,
			Amount:      voucher.Cost,
			Description: fmt.Sprintf("redeemed voucher %s", voucher.Name),
			SourceKind:  enums.LedgerSourceRedemption,
			SourceID:    redemptionID,
		}); err != nil {
			return err
		}

		if err := repo.IncrementRedeemed(ctx, voucher.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating voucher stock")
		}

		code, err := newRedemptionCode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating redemption code")
		}
		redemption = &models.Redemption{
			ID:               redemptionID,
			AccountID:        accountID,
			VoucherID:        voucher.ID,
			Code:             code,
			CostAtRedemption: voucher.Cost,
			RedeemedAt:       now,
		}
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_redemptions_account_voucher") {
				return pkgerrors.New(pkgerrors.CodeConflict, "voucher already redeemed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating redemption")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVoucherRedeemed,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   redemption.ID,
			Source:        &outbox.SourceRef{AccountID: &accountID},
			Data: payloads.VoucherRedeemedEvent{
				RedemptionID: redemption.ID,
				VoucherID:    voucher.ID,
				AccountID:    accountID,
				Code:         redemption.Code,
				Cost:         voucher.Cost,
				RedeemedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"redemption_id": redemption.ID.String(),
		"voucher_id":    voucherID.String(),
		"account_id":    accountID.String(),
	})
	s.logg.Info(logCtx, "voucher redeemed")
	return redemption, nil
}

// newRedemptionCode returns a short human-readable single-use code.
func newRedemptionCode() (string, error) {
	raw := make([]byte, 10)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "RDM-" + base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}
