package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
)

func sampleVoucher() *models.Voucher {
	return &models.Voucher{
		ID:            uuid.New(),
		Name:          "Coffee voucher",
		Cost:          2000,
		Stock:         10,
		TotalRedeemed: 4,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		Active:        true,
		CreatedAt:     time.Now(),
	}
}

func TestVoucherCreate(t *testing.T) {
	voucher := sampleVoucher()
	stub := &stubVoucherService{voucher: voucher}

	body := `{"name":"Coffee voucher","cost":2000,"stock":10,` +
		`"valid_from":"2026-04-01T00:00:00Z","valid_until":"2026-05-01T00:00:00Z"}`
	req := routedRequest(http.MethodPost, "/api/v1/vouchers", body, nil)
	rec := httptest.NewRecorder()
	VoucherCreate(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.created == nil {
		t.Fatalf("expected create to be invoked")
	}
	if stub.created.Cost != 2000 || stub.created.Stock != 10 {
		t.Fatalf("unexpected create input: %+v", stub.created)
	}
}

func TestVoucherCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"cost":100,"stock":1,"valid_from":"2026-04-01T00:00:00Z","valid_until":"2026-05-01T00:00:00Z"}`},
		{name: "zero cost", body: `{"name":"x","cost":0,"stock":1,"valid_from":"2026-04-01T00:00:00Z","valid_until":"2026-05-01T00:00:00Z"}`},
		{name: "negative stock", body: `{"name":"x","cost":100,"stock":-1,"valid_from":"2026-04-01T00:00:00Z","valid_until":"2026-05-01T00:00:00Z"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := routedRequest(http.MethodPost, "/api/v1/vouchers", tc.body, nil)
			rec := httptest.NewRecorder()
			VoucherCreate(&stubVoucherService{voucher: sampleVoucher()}, testLogger()).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestVoucherList(t *testing.T) {
	stub := &stubVoucherService{voucher: sampleVoucher()}

	req := routedRequest(http.MethodGet, "/api/v1/vouchers", "", nil)
	rec := httptest.NewRecorder()
	VoucherList(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data []voucherResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 voucher, got %d", len(envelope.Data))
	}
	if envelope.Data[0].StockRemaining != 6 {
		t.Fatalf("expected 6 remaining, got %d", envelope.Data[0].StockRemaining)
	}
}

func TestVoucherRedeem(t *testing.T) {
	accountID := uuid.New()
	voucher := sampleVoucher()
	stub := &stubVoucherService{
		voucher: voucher,
		redemption: &models.Redemption{
			ID:               uuid.New(),
			AccountID:        accountID,
			VoucherID:        voucher.ID,
			Code:             "RDM-TEST",
			CostAtRedemption: voucher.Cost,
			RedeemedAt:       time.Now(),
		},
	}

	body := `{"account_id":"` + accountID.String() + `","voucher_id":"` + voucher.ID.String() + `"}`
	req := routedRequest(http.MethodPost, "/api/v1/vouchers/redeem", body, nil)
	rec := httptest.NewRecorder()
	VoucherRedeem(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.redeemed[0] != accountID || stub.redeemed[1] != voucher.ID {
		t.Fatalf("unexpected redeem args: %v", stub.redeemed)
	}

	var envelope struct {
		Data redemptionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Code != "RDM-TEST" {
		t.Fatalf("expected redemption code, got %q", envelope.Data.Code)
	}
}

func TestVoucherRedeemErrorMapping(t *testing.T) {
	accountID := uuid.New()
	voucherID := uuid.New()
	body := `{"account_id":"` + accountID.String() + `","voucher_id":"` + voucherID.String() + `"}`

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "out of stock", err: pkgerrors.New(pkgerrors.CodeOutOfStock, "voucher stock exhausted"), status: http.StatusConflict},
		{name: "insufficient balance", err: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "balance too low"), status: http.StatusUnprocessableEntity},
		{name: "already redeemed", err: pkgerrors.New(pkgerrors.CodeConflict, "voucher already redeemed"), status: http.StatusConflict},
		{name: "outside window", err: pkgerrors.New(pkgerrors.CodeStateConflict, "voucher is not redeemable"), status: http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := routedRequest(http.MethodPost, "/api/v1/vouchers/redeem", body, nil)
			rec := httptest.NewRecorder()
			VoucherRedeem(&stubVoucherService{err: tc.err}, testLogger()).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}
