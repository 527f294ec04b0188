package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adityarahmanda/trashpoint-backend/api/responses"
	"github.com/adityarahmanda/trashpoint-backend/api/validators"
	"github.com/adityarahmanda/trashpoint-backend/internal/deposits"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

type depositIntakeRequest struct {
	MachineID        string          `json:"machine_id" validate:"required,uuid"`
	SessionToken     *string         `json:"session_token"`
	DeclaredCategory *string         `json:"declared_category"`
	Weight           decimal.Decimal `json:"weight"`
	Quantity         int             `json:"quantity"`
}

func (r depositIntakeRequest) toInput() (deposits.IntakeInput, error) {
	machineID, err := uuid.Parse(strings.TrimSpace(r.MachineID))
	if err != nil {
		return deposits.IntakeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid machine_id")
	}

	input := deposits.IntakeInput{
		MachineID: machineID,
		Weight:    r.Weight,
		Quantity:  r.Quantity,
	}

	if r.SessionToken != nil {
		token := strings.TrimSpace(*r.SessionToken)
		if token == "" {
			return deposits.IntakeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "session_token must not be blank")
		}
		input.SessionToken = &token
	}

	if r.DeclaredCategory != nil {
		category, err := enums.ParseWasteCategory(strings.TrimSpace(*r.DeclaredCategory))
		if err != nil {
			return deposits.IntakeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid declared_category")
		}
		input.DeclaredCategory = &category
	}

	return input, nil
}

type depositResponse struct {
	ID              uuid.UUID           `json:"id"`
	AccountID       *uuid.UUID          `json:"account_id,omitempty"`
	MachineID       uuid.UUID           `json:"machine_id"`
	SessionToken    *string             `json:"session_token,omitempty"`
	Category        enums.WasteCategory `json:"category"`
	Weight          decimal.Decimal     `json:"weight"`
	Quantity        int                 `json:"quantity"`
	QualityGrade    enums.QualityGrade  `json:"quality_grade"`
	Confidence      int                 `json:"confidence"`
	RewardAmount    int64               `json:"reward_amount"`
	Currency        enums.Currency      `json:"currency"`
	Status          enums.DepositStatus `json:"status"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time          `json:"processed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func depositResponseFromModel(m *models.Deposit) depositResponse {
	return depositResponse{
		ID:              m.ID,
		AccountID:       m.AccountID,
		MachineID:       m.MachineID,
		SessionToken:    m.SessionToken,
		Category:        m.Category,
		Weight:          m.Weight,
		Quantity:        m.Quantity,
		QualityGrade:    m.QualityGrade,
		Confidence:      m.Confidence,
		RewardAmount:    m.RewardAmount,
		Currency:        m.Currency,
		Status:          m.Status,
		RejectionReason: m.RejectionReason,
		ProcessedAt:     m.ProcessedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// DepositIntake records a waste intake and immediately runs classification,
// returning the deposit in its post-classification state.
func DepositIntake(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposit service unavailable"))
			return
		}

		var payload depositIntakeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deposit, err := svc.Intake(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		classified, err := svc.RunClassification(r.Context(), deposit.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, depositResponseFromModel(classified))
	}
}

type depositFinalizeRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
	Reason   string `json:"reason"`
}

// DepositFinalize settles a processing deposit with an accept or reject decision.
func DepositFinalize(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposit service unavailable"))
			return
		}

		depositID, err := validators.ParsePathUUID(chi.URLParam(r, "depositId"), "depositId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload depositFinalizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deposit, err := svc.Finalize(r.Context(), depositID, deposits.FinalizeInput{
			Decision: deposits.Decision(payload.Decision),
			Reason:   strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, depositResponseFromModel(deposit))
	}
}

// DepositGet returns a single deposit by id.
func DepositGet(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposit service unavailable"))
			return
		}

		depositID, err := validators.ParsePathUUID(chi.URLParam(r, "depositId"), "depositId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deposit, err := svc.GetByID(r.Context(), depositID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, depositResponseFromModel(deposit))
	}
}
