package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

func setupSessionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  machine_id TEXT NOT NULL,
  token TEXT NOT NULL UNIQUE,
  state TEXT NOT NULL DEFAULT 'pending',
  mode TEXT NOT NULL DEFAULT 'member',
  owner_id TEXT,
  expires_at DATETIME NOT NULL,
  claimed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM sessions`).Error)
	return db
}

func newPendingSession(t *testing.T, db *gorm.DB, expiresAt time.Time) *models.Session {
	t.Helper()

	session := &models.Session{
		ID:        uuid.New(),
		MachineID: uuid.New(),
		Token:     uuid.NewString(),
		State:     enums.SessionStatePending,
		Mode:      enums.SessionModeMember,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestClaimPending_SingleWinner(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	session := newPendingSession(t, db, now.Add(10*time.Minute))
	owner := uuid.New()

	rows, err := repo.ClaimPending(ctx, session.Token, enums.SessionModeMember, &owner, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// the same token can never transition twice
	other := uuid.New()
	rows, err = repo.ClaimPending(ctx, session.Token, enums.SessionModeMember, &other, now)
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := repo.FindByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStateClaimed, got.State)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner, *got.OwnerID)
	require.NotNil(t, got.ClaimedAt)
}

func TestClaimPending_RefusesLapsedRow(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	session := newPendingSession(t, db, now.Add(-time.Second))
	owner := uuid.New()

	rows, err := repo.ClaimPending(ctx, session.Token, enums.SessionModeMember, &owner, now)
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := repo.FindByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatePending, got.State)
	assert.Nil(t, got.OwnerID)
}

func TestClaimPending_GuestKeepsOwnerNull(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	session := newPendingSession(t, db, now.Add(10*time.Minute))

	rows, err := repo.ClaimPending(ctx, session.Token, enums.SessionModeGuest, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := repo.FindByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStateClaimed, got.State)
	assert.Equal(t, enums.SessionModeGuest, got.Mode)
	assert.Nil(t, got.OwnerID)
}

func TestExpirePending(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	session := newPendingSession(t, db, now.Add(-time.Minute))

	rows, err := repo.ExpirePending(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// expired is terminal
	rows, err = repo.ExpirePending(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := repo.FindByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStateExpired, got.State)
}

func TestFindDuePending(t *testing.T) {
	db := setupSessionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	due := newPendingSession(t, db, now.Add(-time.Minute))
	newPendingSession(t, db, now.Add(10*time.Minute))

	claimed := newPendingSession(t, db, now.Add(-time.Hour))
	_, err := repo.ClaimPending(ctx, claimed.Token, enums.SessionModeMember, nil, now.Add(-2*time.Hour))
	require.NoError(t, err)

	rows, err := repo.FindDuePending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, due.ID, rows[0].ID)
}
