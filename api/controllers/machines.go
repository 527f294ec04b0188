package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/api/responses"
	"github.com/adityarahmanda/trashpoint-backend/api/validators"
	"github.com/adityarahmanda/trashpoint-backend/internal/machines"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

type machineRegisterRequest struct {
	Name               string   `json:"name" validate:"required"`
	LocationLabel      string   `json:"location_label" validate:"required"`
	AcceptedCategories []string `json:"accepted_categories"`
}

func (r machineRegisterRequest) toInput() (machines.RegisterInput, error) {
	input := machines.RegisterInput{
		Name:          strings.TrimSpace(r.Name),
		LocationLabel: strings.TrimSpace(r.LocationLabel),
	}

	for _, raw := range r.AcceptedCategories {
		category, err := enums.ParseWasteCategory(strings.TrimSpace(raw))
		if err != nil {
			return machines.RegisterInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid accepted category")
		}
		input.AcceptedCategories = append(input.AcceptedCategories, category)
	}

	return input, nil
}

type machineResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	LocationLabel      string              `json:"location_label"`
	Status             enums.MachineStatus `json:"status"`
	AcceptedCategories []string            `json:"accepted_categories"`
	LastSeenAt         *time.Time          `json:"last_seen_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func machineResponseFromModel(m *models.Machine) machineResponse {
	return machineResponse{
		ID:                 m.ID,
		Name:               m.Name,
		LocationLabel:      m.LocationLabel,
		Status:             m.Status,
		AcceptedCategories: []string(m.AcceptedCategories),
		LastSeenAt:         m.LastSeenAt,
		CreatedAt:          m.CreatedAt,
	}
}

// MachineRegister adds a machine to the fleet.
func MachineRegister(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		var payload machineRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.Register(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, machineResponseFromModel(machine))
	}
}

// MachineList returns every registered machine.
func MachineList(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]machineResponse, 0, len(list))
		for i := range list {
			out = append(out, machineResponseFromModel(&list[i]))
		}

		responses.WriteSuccess(w, out)
	}
}

// MachineGet returns a single machine by id.
func MachineGet(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.GetByID(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, machineResponseFromModel(machine))
	}
}

type machineStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MachineSetStatus moves a machine between active, maintenance and retired.
func MachineSetStatus(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload machineStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMachineStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.SetStatus(r.Context(), machineID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// MachineHeartbeat stamps the machine's last_seen_at.
func MachineHeartbeat(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Heartbeat(r.Context(), machineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
