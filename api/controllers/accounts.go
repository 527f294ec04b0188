package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/api/responses"
	"github.com/adityarahmanda/trashpoint-backend/api/validators"
	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/pagination"
)

type balanceResponse struct {
	AccountID uuid.UUID      `json:"account_id"`
	Amount    int64          `json:"amount"`
	Currency  enums.Currency `json:"currency"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AccountBalance returns the account's materialized balance. Accounts that
// never earned anything report a zero balance rather than a 404.
func AccountBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		accountID, err := validators.ParsePathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponse{
			AccountID: balance.AccountID,
			Amount:    balance.Amount,
			Currency:  balance.Currency,
			UpdatedAt: balance.UpdatedAt,
		})
	}
}

type ledgerEntryResponse struct {
	ID            uuid.UUID              `json:"id"`
	Kind          enums.LedgerEntryKind  `json:"kind"`
	Amount        int64                  `json:"amount"`
	BalanceBefore int64                  `json:"balance_before"`
	BalanceAfter  int64                  `json:"balance_after"`
	Description   string                 `json:"description"`
	SourceKind    enums.LedgerSourceKind `json:"source_kind"`
	SourceID      uuid.UUID              `json:"source_id"`
	CreatedAt     time.Time              `json:"created_at"`
}

func ledgerEntryResponseFromModel(m models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:            m.ID,
		Kind:          m.Kind,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		SourceKind:    m.SourceKind,
		SourceID:      m.SourceID,
		CreatedAt:     m.CreatedAt,
	}
}

// AccountLedger lists an account's ledger entries newest first with cursor
// pagination and an optional kind filter.
func AccountLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		accountID, err := validators.ParsePathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ledger.ListInput{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseLedgerEntryKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			input.Kind = &kind
		}

		page, err := svc.ListEntries(r.Context(), accountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]ledgerEntryResponse, 0, len(page.Entries))
		for _, entry := range page.Entries {
			entries = append(entries, ledgerEntryResponseFromModel(entry))
		}

		responses.WritePage(w, entries, page.NextCursor, page.HasMore)
	}
}
