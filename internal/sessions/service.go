package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type machineLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type statusCache interface {
	GetSessionStatus(ctx context.Context, token string) (string, error)
	CacheSessionStatus(ctx context.Context, token, payload string, ttl time.Duration) error
	InvalidateSessionStatus(ctx context.Context, token string) error
}

// Service drives the session lifecycle between machines and account owners.
type Service interface {
	Create(ctx context.Context, machineID uuid.UUID) (*models.Session, error)
	Claim(ctx context.Context, token string, ownerID uuid.UUID) (*models.Session, error)
	ActivateGuest(ctx context.Context, token string) (*models.Session, error)
	GetStatus(ctx context.Context, token string) (*models.Session, error)
	// ExpireDue sweeps lapsed pending sessions, emitting an event per row.
	ExpireDue(ctx context.Context, batchSize int) (int, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	machines machineLoader
	outbox   outboxPublisher
	cache    statusCache
	logg     *logger.Logger
	cfg      config.SessionConfig
	now      func() time.Time
}

// NewService builds the session service. The cache is optional.
func NewService(
	tx txRunner,
	repo Repository,
	machines machineLoader,
	publisher outboxPublisher,
	cache statusCache,
	logg *logger.Logger,
	cfg config.SessionConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		machines: machines,
		outbox:   publisher,
		cache:    cache,
		logg:     logg,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, machineID uuid.UUID) (*models.Session, error) {
	if machineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine id required")
	}

	machine, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, err
	}
	if machine.Status != enums.MachineStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "machine not active")
	}

	token, err := newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating session token")
	}

	now := s.now()
	session := &models.Session{
		MachineID: machineID,
		Token:     token,
		State:     enums.SessionStatePending,
		Mode:      enums.SessionModeMember,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Claim(ctx context.Context, token string, ownerID uuid.UUID) (*models.Session, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	return s.transition(ctx, token, enums.SessionModeMember, &ownerID)
}

func (s *service) ActivateGuest(ctx context.Context, token string) (*models.Session, error) {
	return s.transition(ctx, token, enums.SessionModeGuest, nil)
}

func (s *service) transition(ctx context.Context, token string, mode enums.SessionMode, ownerID *uuid.UUID) (*models.Session, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}

	now := s.now()
	var claimed *models.Session
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.ClaimPending(ctx, token, mode, ownerID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return s.classifyClaimFailure(ctx, repo, token, now)
		}

		session, err := repo.FindByToken(ctx, token)
		if err != nil {
			return err
		}
		claimed = session

		return s.emitTransition(ctx, tx, session, mode, now)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, token)
	return claimed, nil
}

// classifyClaimFailure turns a zero-row CAS into the precise error the caller
// needs; a lapsed pending row is also marked expired while we hold the tx.
func (s *service) classifyClaimFailure(ctx context.Context, repo Repository, token string, now time.Time) error {
	session, err := repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return err
	}
	if session.ExpiredAt(now) {
		if session.State == enums.SessionStatePending {
			if _, err := repo.ExpirePending(ctx, session.ID); err != nil {
				return err
			}
		}
		return pkgerrors.New(pkgerrors.CodeExpired, "session expired")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "session already claimed")
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, session *models.Session, mode enums.SessionMode, now time.Time) error {
	if mode == enums.SessionModeGuest {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionGuestActivated,
			AggregateType: enums.AggregateSession,
			AggregateID:   session.ID,
			Source:        &outbox.SourceRef{MachineID: &session.MachineID},
			Data: payloads.SessionGuestActivatedEvent{
				SessionID:   session.ID,
				MachineID:   session.MachineID,
				ActivatedAt: now,
			},
			Version: 1,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSessionClaimed,
		AggregateType: enums.AggregateSession,
		AggregateID:   session.ID,
		Source:        &outbox.SourceRef{MachineID: &session.MachineID, AccountID: session.OwnerID},
		Data: payloads.SessionClaimedEvent{
			SessionID: session.ID,
			MachineID: session.MachineID,
			AccountID: derefUUID(session.OwnerID),
			ClaimedAt: now,
		},
		Version: 1,
	})
}

func (s *service) GetStatus(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}

	now := s.now()
	if cached := s.cachedStatus(ctx, token, now); cached != nil {
		return cached, nil
	}

	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, err
	}

	// Expiry is presented lazily; the sweep settles the stored row later.
	if session.State == enums.SessionStatePending && session.ExpiredAt(now) {
		session.State = enums.SessionStateExpired
	}

	s.storeCache(ctx, session)
	return session, nil
}

func (s *service) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	now := s.now()
	due, err := s.repo.FindDuePending(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		session := due[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			rows, err := repo.ExpirePending(ctx, session.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				// lost the race to a claim or another sweeper
				return nil
			}
			expired++
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventSessionExpired,
				AggregateType: enums.AggregateSession,
				AggregateID:   session.ID,
				Source:        &outbox.SourceRef{MachineID: &session.MachineID},
				Data: payloads.SessionExpiredEvent{
					SessionID: session.ID,
					MachineID: session.MachineID,
					ExpiredAt: now,
				},
				Version: 1,
			})
		})
		if err != nil {
			return expired, err
		}
		s.invalidateCache(ctx, session.Token)
	}
	return expired, nil
}

func (s *service) cachedStatus(ctx context.Context, token string, now time.Time) *models.Session {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return nil
	}
	payload, err := s.cache.GetSessionStatus(ctx, token)
	if err != nil || payload == "" {
		return nil
	}
	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil
	}
	// The cache never outlives expiry; re-check before trusting it.
	if session.State == enums.SessionStatePending && session.ExpiredAt(now) {
		session.State = enums.SessionStateExpired
	}
	return &session
}

func (s *service) storeCache(ctx context.Context, session *models.Session) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := s.cache.CacheSessionStatus(ctx, session.Token, string(payload), s.cfg.CacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "session status cache write failed")
	}
}

func (s *service) invalidateCache(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSessionStatus(ctx, token); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "session status cache invalidation failed")
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
