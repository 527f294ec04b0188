package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Machine is a registered reverse vending machine.
type Machine struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string              `gorm:"column:name;not null"`
	LocationLabel      string              `gorm:"column:location_label;not null"`
	Status             enums.MachineStatus `gorm:"column:status;type:machine_status_enum;not null;default:'active'"`
	AcceptedCategories pq.StringArray      `gorm:"column:accepted_categories;type:text[]"`
	LastSeenAt         *time.Time          `gorm:"column:last_seen_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Accepts reports whether the machine takes the given waste category.
func (m *Machine) Accepts(category enums.WasteCategory) bool {
	if len(m.AcceptedCategories) == 0 {
		return true
	}
	for _, accepted := range m.AcceptedCategories {
		if accepted == string(category) {
			return true
		}
	}
	return false
}
