package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
)

// Repository manages persistence for machine sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	// ClaimPending performs the compare-and-set transition out of pending.
	// It returns the number of rows moved; zero means the token was missing,
	// already decided, or past its expiry.
	ClaimPending(ctx context.Context, token string, mode enums.SessionMode, ownerID *uuid.UUID, claimedAt time.Time) (int64, error)
	// ExpirePending moves a pending session to expired, guarded by state.
	ExpirePending(ctx context.Context, id uuid.UUID) (int64, error)
	FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Session, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) ClaimPending(ctx context.Context, token string, mode enums.SessionMode, ownerID *uuid.UUID, claimedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("token = ? AND state = ? AND expires_at > ?", token, enums.SessionStatePending, claimedAt).
		Updates(map[string]any{
			"state":      enums.SessionStateClaimed,
			"mode":       mode,
			"owner_id":   ownerID,
			"claimed_at": claimedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ExpirePending(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND state = ?", id, enums.SessionStatePending).
		Update("state", enums.SessionStateExpired)
	return res.RowsAffected, res.Error
}

func (r *repository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Session, error) {
	var rows []models.Session
	q := r.db.WithContext(ctx).
		Where("state = ? AND expires_at <= ?", enums.SessionStatePending, now).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
