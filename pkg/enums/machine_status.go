package enums

import "fmt"

// MachineStatus tracks whether an RVM may open sessions and accept deposits.
type MachineStatus string

const (
	MachineStatusActive      MachineStatus = "active"
	MachineStatusMaintenance MachineStatus = "maintenance"
	MachineStatusRetired     MachineStatus = "retired"
)

var validMachineStatuses = []MachineStatus{
	MachineStatusActive,
	MachineStatusMaintenance,
	MachineStatusRetired,
}

// IsValid reports whether the value is a known MachineStatus.
func (m MachineStatus) IsValid() bool {
	for _, candidate := range validMachineStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMachineStatus converts raw input into a MachineStatus.
func ParseMachineStatus(value string) (MachineStatus, error) {
	for _, candidate := range validMachineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid machine status %q", value)
}
