package controllers

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/internal/deposits"
	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/internal/machines"
	"github.com/adityarahmanda/trashpoint-backend/internal/sessions"
	"github.com/adityarahmanda/trashpoint-backend/internal/vouchers"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubSessionService struct {
	session *models.Session
	err     error

	claimedToken string
	claimedOwner uuid.UUID
}

func (s *stubSessionService) Create(_ context.Context, machineID uuid.UUID) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.session
	out.MachineID = machineID
	return &out, nil
}

func (s *stubSessionService) Claim(_ context.Context, token string, ownerID uuid.UUID) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.claimedToken = token
	s.claimedOwner = ownerID
	out := *s.session
	out.State = enums.SessionStateClaimed
	out.OwnerID = &ownerID
	return &out, nil
}

func (s *stubSessionService) ActivateGuest(_ context.Context, token string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.session
	out.State = enums.SessionStateClaimed
	out.Mode = enums.SessionModeGuest
	return &out, nil
}

func (s *stubSessionService) GetStatus(_ context.Context, token string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubSessionService) ExpireDue(context.Context, int) (int, error) { return 0, nil }

var _ sessions.Service = (*stubSessionService)(nil)

type stubDepositService struct {
	deposit *models.Deposit
	err     error

	intakeInput   *deposits.IntakeInput
	classifiedID  uuid.UUID
	finalizeID    uuid.UUID
	finalizeInput *deposits.FinalizeInput
}

func (s *stubDepositService) Intake(_ context.Context, input deposits.IntakeInput) (*models.Deposit, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.intakeInput = &input
	return s.deposit, nil
}

func (s *stubDepositService) RunClassification(_ context.Context, depositID uuid.UUID) (*models.Deposit, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.classifiedID = depositID
	out := *s.deposit
	out.Status = enums.DepositStatusProcessing
	return &out, nil
}

func (s *stubDepositService) Finalize(_ context.Context, depositID uuid.UUID, input deposits.FinalizeInput) (*models.Deposit, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.finalizeID = depositID
	s.finalizeInput = &input
	out := *s.deposit
	out.Status = enums.DepositStatusCompleted
	return &out, nil
}

func (s *stubDepositService) GetByID(_ context.Context, depositID uuid.UUID) (*models.Deposit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.deposit, nil
}

var _ deposits.Service = (*stubDepositService)(nil)

type stubMachineService struct {
	machine *models.Machine
	err     error

	registered *machines.RegisterInput
	status     enums.MachineStatus
	heartbeats int
}

func (s *stubMachineService) Register(_ context.Context, input machines.RegisterInput) (*models.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = &input
	return s.machine, nil
}

func (s *stubMachineService) GetByID(context.Context, uuid.UUID) (*models.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.machine, nil
}

func (s *stubMachineService) List(context.Context) ([]models.Machine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Machine{*s.machine}, nil
}

func (s *stubMachineService) SetStatus(_ context.Context, _ uuid.UUID, status enums.MachineStatus) error {
	if s.err != nil {
		return s.err
	}
	s.status = status
	return nil
}

func (s *stubMachineService) Heartbeat(context.Context, uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.heartbeats++
	return nil
}

var _ machines.Service = (*stubMachineService)(nil)

type stubVoucherService struct {
	voucher    *models.Voucher
	redemption *models.Redemption
	err        error

	created  *vouchers.CreateInput
	redeemed [2]uuid.UUID
}

func (s *stubVoucherService) Create(_ context.Context, input vouchers.CreateInput) (*models.Voucher, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &input
	return s.voucher, nil
}

func (s *stubVoucherService) GetByID(context.Context, uuid.UUID) (*models.Voucher, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.voucher, nil
}

func (s *stubVoucherService) ListRedeemable(context.Context) ([]models.Voucher, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Voucher{*s.voucher}, nil
}

func (s *stubVoucherService) Redeem(_ context.Context, accountID, voucherID uuid.UUID) (*models.Redemption, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.redeemed = [2]uuid.UUID{accountID, voucherID}
	return s.redemption, nil
}

var _ vouchers.Service = (*stubVoucherService)(nil)

type stubLedgerService struct {
	balance *models.Balance
	page    *ledger.EntryPage
	err     error

	listInput *ledger.ListInput
}

func (s *stubLedgerService) Credit(context.Context, *gorm.DB, ledger.MutationInput) (*models.LedgerEntry, error) {
	return nil, s.err
}

func (s *stubLedgerService) Debit(context.Context, *gorm.DB, ledger.MutationInput) (*models.LedgerEntry, error) {
	return nil, s.err
}

func (s *stubLedgerService) GetBalance(context.Context, uuid.UUID) (*models.Balance, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.balance, nil
}

func (s *stubLedgerService) ListEntries(_ context.Context, _ uuid.UUID, input ledger.ListInput) (*ledger.EntryPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.listInput = &input
	return s.page, nil
}

var _ ledger.Service = (*stubLedgerService)(nil)

func sampleSession() *models.Session {
	return &models.Session{
		ID:        uuid.New(),
		MachineID: uuid.New(),
		Token:     "tok-sample",
		State:     enums.SessionStatePending,
		Mode:      enums.SessionModeMember,
		ExpiresAt: time.Now().Add(2 * time.Minute),
		CreatedAt: time.Now(),
	}
}

func sampleDeposit() *models.Deposit {
	return &models.Deposit{
		ID:           uuid.New(),
		MachineID:    uuid.New(),
		Category:     enums.WasteCategoryPlastic,
		Weight:       decimal.NewFromFloat(1.5),
		Quantity:     3,
		QualityGrade: enums.QualityGradeA,
		Currency:     enums.CurrencyIDR,
		Status:       enums.DepositStatusPending,
		CreatedAt:    time.Now(),
	}
}
