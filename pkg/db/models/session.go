package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Session binds a physical machine interaction to an identity or guest mode.
// The token is single use: once a session leaves pending it never returns.
type Session struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MachineID uuid.UUID          `gorm:"column:machine_id;type:uuid;not null"`
	Token     string             `gorm:"column:token;uniqueIndex;not null"`
	State     enums.SessionState `gorm:"column:state;type:session_state_enum;not null;default:'pending'"`
	Mode      enums.SessionMode  `gorm:"column:mode;type:session_mode_enum;not null;default:'member'"`
	OwnerID   *uuid.UUID         `gorm:"column:owner_id;type:uuid"`
	ExpiresAt time.Time          `gorm:"column:expires_at;not null"`
	ClaimedAt *time.Time         `gorm:"column:claimed_at"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpiredAt reports whether the session has lapsed at the given instant,
// regardless of the stored state (lazy expiry).
func (s *Session) ExpiredAt(now time.Time) bool {
	if s.State == enums.SessionStateExpired {
		return true
	}
	return now.After(s.ExpiresAt)
}
