package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/api/responses"
	"github.com/adityarahmanda/trashpoint-backend/api/validators"
	"github.com/adityarahmanda/trashpoint-backend/internal/sessions"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

type sessionResponse struct {
	ID        uuid.UUID          `json:"id"`
	MachineID uuid.UUID          `json:"machine_id"`
	Token     string             `json:"token"`
	State     enums.SessionState `json:"state"`
	Mode      enums.SessionMode  `json:"mode"`
	OwnerID   *uuid.UUID         `json:"owner_id,omitempty"`
	ExpiresAt time.Time          `json:"expires_at"`
	ClaimedAt *time.Time         `json:"claimed_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func sessionResponseFromModel(m *models.Session) sessionResponse {
	return sessionResponse{
		ID:        m.ID,
		MachineID: m.MachineID,
		Token:     m.Token,
		State:     m.State,
		Mode:      m.Mode,
		OwnerID:   m.OwnerID,
		ExpiresAt: m.ExpiresAt,
		ClaimedAt: m.ClaimedAt,
		CreatedAt: m.CreatedAt,
	}
}

// SessionCreate opens a pending session for a machine.
func SessionCreate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Create(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponseFromModel(session))
	}
}

type sessionClaimRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
}

// SessionClaim binds a pending session to a member account.
func SessionClaim(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session token is required"))
			return
		}

		var payload sessionClaimRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerID, err := uuid.Parse(strings.TrimSpace(payload.AccountID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account_id"))
			return
		}

		session, err := svc.Claim(r.Context(), token, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}

// SessionActivateGuest switches a pending session into anonymous guest mode.
func SessionActivateGuest(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session token is required"))
			return
		}

		session, err := svc.ActivateGuest(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}

// SessionStatus returns the current state of a session by its token.
func SessionStatus(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session token is required"))
			return
		}

		session, err := svc.GetStatus(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}
