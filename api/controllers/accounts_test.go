package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

func TestAccountBalance(t *testing.T) {
	accountID := uuid.New()
	stub := &stubLedgerService{balance: &models.Balance{
		AccountID: accountID,
		Amount:    12500,
		Currency:  enums.CurrencyIDR,
		UpdatedAt: time.Now(),
	}}

	req := routedRequest(http.MethodGet, "/api/v1/accounts/"+accountID.String()+"/balance", "", map[string]string{"accountId": accountID.String()})
	rec := httptest.NewRecorder()
	AccountBalance(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data balanceResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Amount != 12500 {
		t.Fatalf("expected amount 12500, got %d", envelope.Data.Amount)
	}
	if envelope.Data.AccountID != accountID {
		t.Fatalf("expected account %s, got %s", accountID, envelope.Data.AccountID)
	}
}

func TestAccountBalanceInvalidID(t *testing.T) {
	req := routedRequest(http.MethodGet, "/api/v1/accounts/nope/balance", "", map[string]string{"accountId": "nope"})
	rec := httptest.NewRecorder()
	AccountBalance(&stubLedgerService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountLedger(t *testing.T) {
	accountID := uuid.New()
	entry := models.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     accountID,
		Kind:          enums.LedgerEntryKindCredit,
		Amount:        4500,
		BalanceBefore: 0,
		BalanceAfter:  4500,
		Description:   "deposit reward",
		SourceKind:    enums.LedgerSourceDeposit,
		SourceID:      uuid.New(),
		CreatedAt:     time.Now(),
	}
	stub := &stubLedgerService{page: &ledger.EntryPage{
		Entries:    []models.LedgerEntry{entry},
		NextCursor: "cursor-token",
		HasMore:    true,
	}}

	req := routedRequest(http.MethodGet,
		"/api/v1/accounts/"+accountID.String()+"/ledger?limit=10&kind=credit&cursor=abc",
		"", map[string]string{"accountId": accountID.String()})
	rec := httptest.NewRecorder()
	AccountLedger(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if stub.listInput == nil {
		t.Fatalf("expected list to be invoked")
	}
	if stub.listInput.Pagination.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", stub.listInput.Pagination.Limit)
	}
	if stub.listInput.Pagination.Cursor != "abc" {
		t.Fatalf("expected cursor abc, got %q", stub.listInput.Pagination.Cursor)
	}
	if stub.listInput.Kind == nil || *stub.listInput.Kind != enums.LedgerEntryKindCredit {
		t.Fatalf("expected credit kind filter, got %v", stub.listInput.Kind)
	}

	var envelope struct {
		Data []ledgerEntryResponse `json:"data"`
		Meta struct {
			NextCursor string `json:"next_cursor"`
			HasMore    bool   `json:"has_more"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Amount != 4500 {
		t.Fatalf("expected amount 4500, got %d", envelope.Data[0].Amount)
	}
	if envelope.Meta.NextCursor != "cursor-token" || !envelope.Meta.HasMore {
		t.Fatalf("expected pagination meta, got %+v", envelope.Meta)
	}
}

func TestAccountLedgerQueryValidation(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name  string
		query string
	}{
		{name: "limit not a number", query: "?limit=abc"},
		{name: "limit above max", query: "?limit=5000"},
		{name: "unknown kind", query: "?kind=transfer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := routedRequest(http.MethodGet,
				"/api/v1/accounts/"+accountID.String()+"/ledger"+tc.query,
				"", map[string]string{"accountId": accountID.String()})
			rec := httptest.NewRecorder()
			AccountLedger(&stubLedgerService{page: &ledger.EntryPage{}}, testLogger()).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}
