package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/pagination"
)

// Service applies balance mutations and serves the ledger read side.
// Credit and Debit require the caller's transaction: the entry, the balance
// update and whatever business change caused them commit or roll back together.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input MutationInput) (*models.LedgerEntry, error)
	Debit(ctx context.Context, tx *gorm.DB, input MutationInput) (*models.LedgerEntry, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (*models.Balance, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, input ListInput) (*EntryPage, error)
}

// MutationInput captures one balance mutation.
type MutationInput struct {
	AccountID   uuid.UUID
	Amount      int64
	Description string
	SourceKind  enums.LedgerSourceKind
	SourceID    uuid.UUID
}

// ListInput carries the ledger read-side filters.
type ListInput struct {
	Pagination pagination.Params
	Kind       *enums.LedgerEntryKind
}

// EntryPage is one cursor page of ledger entries.
type EntryPage struct {
	Entries    []models.LedgerEntry
	NextCursor string
	HasMore    bool
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input MutationInput) (*models.LedgerEntry, error) {
	return s.apply(ctx, tx, enums.LedgerEntryKindCredit, input)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input MutationInput) (*models.LedgerEntry, error) {
	return s.apply(ctx, tx, enums.LedgerEntryKindDebit, input)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, kind enums.LedgerEntryKind, input MutationInput) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}
	if !input.SourceKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger source %q", input.SourceKind))
	}
	if input.SourceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source id required")
	}

	repo := s.repo.WithTx(tx)

	balance, err := s.lockOrCreateBalance(ctx, repo, input.AccountID)
	if err != nil {
		return nil, err
	}

	before := balance.Amount
	var after int64
	switch kind {
	case enums.LedgerEntryKindCredit:
		after = before + input.Amount
	case enums.LedgerEntryKindDebit:
		if input.Amount > before {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")
		}
		after = before - input.Amount
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entry kind %q", kind))
	}

	entry := &models.LedgerEntry{
		AccountID:     input.AccountID,
		BalanceID:     balance.ID,
		Kind:          kind,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   input.Description,
		SourceKind:    input.SourceKind,
		SourceID:      input.SourceID,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := repo.UpdateBalanceAmount(ctx, balance.ID, after); err != nil {
		return nil, err
	}
	return entry, nil
}

// lockOrCreateBalance returns the account's balance row locked for the
// transaction, creating the zero row on first touch.
func (s *service) lockOrCreateBalance(ctx context.Context, repo Repository, accountID uuid.UUID) (*models.Balance, error) {
	balance, err := repo.FindBalanceForUpdate(ctx, accountID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Balance{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    0,
		Currency:  enums.CurrencyIDR,
	}
	if err := repo.CreateBalance(ctx, fresh); err != nil {
		// concurrent first touch: somebody else inserted the row, lock theirs
		return repo.FindBalanceForUpdate(ctx, accountID)
	}
	return fresh, nil
}

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (*models.Balance, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	balance, err := s.repo.FindBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// an untouched account simply has a zero balance
			return &models.Balance{AccountID: accountID, Amount: 0, Currency: enums.CurrencyIDR}, nil
		}
		return nil, err
	}
	return balance, nil
}

func (s *service) ListEntries(ctx context.Context, accountID uuid.UUID, input ListInput) (*EntryPage, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.Kind != nil && !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entry kind %q", *input.Kind))
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListEntries(ctx, accountID, cursor, input.Kind, pagination.LimitWithBuffer(input.Pagination.Limit))
	if err != nil {
		return nil, err
	}

	entries, hasMore := pagination.TrimPage(rows, input.Pagination.Limit)
	page := &EntryPage{Entries: entries, HasMore: hasMore}
	if hasMore && len(entries) > 0 {
		last := entries[len(entries)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
