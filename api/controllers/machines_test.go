package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

func sampleMachine() *models.Machine {
	return &models.Machine{
		ID:                 uuid.New(),
		Name:               "Station 12",
		LocationLabel:      "Mall lobby",
		Status:             enums.MachineStatusActive,
		AcceptedCategories: pq.StringArray{"plastic", "glass"},
	}
}

func TestMachineRegister(t *testing.T) {
	machine := sampleMachine()
	stub := &stubMachineService{machine: machine}

	body := `{"name":"Station 12","location_label":"Mall lobby","accepted_categories":["plastic","glass"]}`
	req := routedRequest(http.MethodPost, "/api/v1/machines", body, nil)
	rec := httptest.NewRecorder()
	MachineRegister(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.registered == nil {
		t.Fatalf("expected register to be invoked")
	}
	if len(stub.registered.AcceptedCategories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(stub.registered.AcceptedCategories))
	}
	if stub.registered.AcceptedCategories[0] != enums.WasteCategoryPlastic {
		t.Fatalf("expected plastic first, got %s", stub.registered.AcceptedCategories[0])
	}
}

func TestMachineRegisterRejectsUnknownCategory(t *testing.T) {
	body := `{"name":"Station 12","location_label":"Mall lobby","accepted_categories":["plutonium"]}`
	req := routedRequest(http.MethodPost, "/api/v1/machines", body, nil)
	rec := httptest.NewRecorder()
	MachineRegister(&stubMachineService{machine: sampleMachine()}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMachineList(t *testing.T) {
	stub := &stubMachineService{machine: sampleMachine()}

	req := routedRequest(http.MethodGet, "/api/v1/machines", "", nil)
	rec := httptest.NewRecorder()
	MachineList(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data []machineResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 machine, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Name != "Station 12" {
		t.Fatalf("expected machine name, got %q", envelope.Data[0].Name)
	}
}

func TestMachineSetStatus(t *testing.T) {
	machine := sampleMachine()
	stub := &stubMachineService{machine: machine}

	req := routedRequest(http.MethodPut, "/api/v1/machines/"+machine.ID.String()+"/status",
		`{"status":"maintenance"}`, map[string]string{"machineId": machine.ID.String()})
	rec := httptest.NewRecorder()
	MachineSetStatus(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.status != enums.MachineStatusMaintenance {
		t.Fatalf("expected maintenance, got %s", stub.status)
	}
}

func TestMachineSetStatusInvalid(t *testing.T) {
	machine := sampleMachine()

	req := routedRequest(http.MethodPut, "/api/v1/machines/"+machine.ID.String()+"/status",
		`{"status":"asleep"}`, map[string]string{"machineId": machine.ID.String()})
	rec := httptest.NewRecorder()
	MachineSetStatus(&stubMachineService{machine: machine}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMachineHeartbeat(t *testing.T) {
	machine := sampleMachine()
	stub := &stubMachineService{machine: machine}

	req := routedRequest(http.MethodPost, "/api/v1/machines/"+machine.ID.String()+"/heartbeat", "", map[string]string{"machineId": machine.ID.String()})
	rec := httptest.NewRecorder()
	MachineHeartbeat(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.heartbeats != 1 {
		t.Fatalf("expected one heartbeat, got %d", stub.heartbeats)
	}
}
