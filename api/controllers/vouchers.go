package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/api/responses"
	"github.com/adityarahmanda/trashpoint-backend/api/validators"
	"github.com/adityarahmanda/trashpoint-backend/internal/vouchers"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

type voucherCreateRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	Cost        int64     `json:"cost" validate:"required,gt=0"`
	Stock       int       `json:"stock" validate:"required,gt=0"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidUntil  time.Time `json:"valid_until" validate:"required"`
}

func (r voucherCreateRequest) toInput() vouchers.CreateInput {
	return vouchers.CreateInput{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Cost:        r.Cost,
		Stock:       r.Stock,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
	}
}

type voucherResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	Cost           int64     `json:"cost"`
	Stock          int       `json:"stock"`
	StockRemaining int       `json:"stock_remaining"`
	ValidFrom      time.Time `json:"valid_from"`
	ValidUntil     time.Time `json:"valid_until"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func voucherResponseFromModel(m *models.Voucher) voucherResponse {
	remaining := m.Stock - m.TotalRedeemed
	if remaining < 0 {
		remaining = 0
	}
	return voucherResponse{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Cost:           m.Cost,
		Stock:          m.Stock,
		StockRemaining: remaining,
		ValidFrom:      m.ValidFrom,
		ValidUntil:     m.ValidUntil,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}

// VoucherCreate registers a new redeemable voucher.
func VoucherCreate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		var payload voucherCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, voucherResponseFromModel(voucher))
	}
}

// VoucherList returns vouchers currently open for redemption.
func VoucherList(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		list, err := svc.ListRedeemable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]voucherResponse, 0, len(list))
		for i := range list {
			out = append(out, voucherResponseFromModel(&list[i]))
		}

		responses.WriteSuccess(w, out)
	}
}

type voucherRedeemRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
	VoucherID string `json:"voucher_id" validate:"required,uuid"`
}

type redemptionResponse struct {
	ID               uuid.UUID `json:"id"`
	AccountID        uuid.UUID `json:"account_id"`
	VoucherID        uuid.UUID `json:"voucher_id"`
	Code             string    `json:"code"`
	CostAtRedemption int64     `json:"cost_at_redemption"`
	RedeemedAt       time.Time `json:"redeemed_at"`
}

// VoucherRedeem exchanges account balance for a voucher redemption code.
func VoucherRedeem(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		var payload voucherRedeemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID, err := uuid.Parse(strings.TrimSpace(payload.AccountID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account_id"))
			return
		}

		voucherID, err := uuid.Parse(strings.TrimSpace(payload.VoucherID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid voucher_id"))
			return
		}

		redemption, err := svc.Redeem(r.Context(), accountID, voucherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, redemptionResponse{
			ID:               redemption.ID,
			AccountID:        redemption.AccountID,
			VoucherID:        redemption.VoucherID,
			Code:             redemption.Code,
			CostAtRedemption: redemption.CostAtRedemption,
			RedeemedAt:       redemption.RedeemedAt,
		})
	}
}
