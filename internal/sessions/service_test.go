package sessions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db/models"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeSessionRepo struct {
	sessions map[string]*models.Session
	claimFn  func(token string, mode enums.SessionMode, ownerID *uuid.UUID, at time.Time) (int64, error)
	expired  []uuid.UUID
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.Session{}}
}

func (f *fakeSessionRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessionRepo) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) ClaimPending(ctx context.Context, token string, mode enums.SessionMode, ownerID *uuid.UUID, at time.Time) (int64, error) {
	if f.claimFn != nil {
		return f.claimFn(token, mode, ownerID, at)
	}
	session, ok := f.sessions[token]
	if !ok || session.State != enums.SessionStatePending || !at.Before(session.ExpiresAt) {
		return 0, nil
	}
	session.State = enums.SessionStateClaimed
	session.Mode = mode
	session.OwnerID = ownerID
	session.ClaimedAt = &at
	return 1, nil
}

func (f *fakeSessionRepo) ExpirePending(ctx context.Context, id uuid.UUID) (int64, error) {
	for _, session := range f.sessions {
		if session.ID == id && session.State == enums.SessionStatePending {
			session.State = enums.SessionStateExpired
			f.expired = append(f.expired, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeSessionRepo) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Session, error) {
	var due []models.Session
	for _, session := range f.sessions {
		if session.State == enums.SessionStatePending && !now.Before(session.ExpiresAt) {
			due = append(due, *session)
		}
	}
	return due, nil
}

type fakeMachineLoader struct {
	machines map[uuid.UUID]*models.Machine
}

func (f *fakeMachineLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error) {
	machine, ok := f.machines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return machine, nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeStatusCache struct {
	data        map[string]string
	invalidated []string
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{data: map[string]string{}}
}

func (f *fakeStatusCache) GetSessionStatus(ctx context.Context, token string) (string, error) {
	return f.data[token], nil
}

func (f *fakeStatusCache) CacheSessionStatus(ctx context.Context, token, payload string, ttl time.Duration) error {
	f.data[token] = payload
	return nil
}

func (f *fakeStatusCache) InvalidateSessionStatus(ctx context.Context, token string) error {
	delete(f.data, token)
	f.invalidated = append(f.invalidated, token)
	return nil
}

type sessionFixture struct {
	svc      *service
	repo     *fakeSessionRepo
	machines *fakeMachineLoader
	outbox   *fakeOutbox
	cache    *fakeStatusCache
	now      time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	repo := newFakeSessionRepo()
	machines := &fakeMachineLoader{machines: map[uuid.UUID]*models.Machine{}}
	ob := &fakeOutbox{}
	cache := newFakeStatusCache()

	svc, err := NewService(fakeTxRunner{}, repo, machines, ob, cache, nil, config.SessionConfig{
		TTL:      10 * time.Minute,
		CacheTTL: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	fixture := &sessionFixture{
		svc:      svc.(*service),
		repo:     repo,
		machines: machines,
		outbox:   ob,
		cache:    cache,
		now:      time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC),
	}
	fixture.svc.now = func() time.Time { return fixture.now }
	return fixture
}

func (f *sessionFixture) addMachine(status enums.MachineStatus) *models.Machine {
	machine := &models.Machine{ID: uuid.New(), Status: status}
	f.machines.machines[machine.ID] = machine
	return machine
}

func (f *sessionFixture) addPendingSession(expiresAt time.Time) *models.Session {
	session := &models.Session{
		ID:        uuid.New(),
		MachineID: uuid.New(),
		Token:     uuid.NewString(),
		State:     enums.SessionStatePending,
		Mode:      enums.SessionModeMember,
		ExpiresAt: expiresAt,
	}
	f.repo.sessions[session.Token] = session
	return session
}

func TestCreate(t *testing.T) {
	fx := newSessionFixture(t)
	machine := fx.addMachine(enums.MachineStatusActive)

	session, err := fx.svc.Create(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a token")
	}
	if session.State != enums.SessionStatePending {
		t.Fatalf("expected pending state, got %s", session.State)
	}
	if want := fx.now.Add(10 * time.Minute); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, session.ExpiresAt)
	}
}

func TestCreate_MachineNotFound(t *testing.T) {
	fx := newSessionFixture(t)
	if _, err := fx.svc.Create(context.Background(), uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCreate_MachineNotActive(t *testing.T) {
	fx := newSessionFixture(t)
	machine := fx.addMachine(enums.MachineStatusMaintenance)
	if _, err := fx.svc.Create(context.Background(), machine.ID); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state-conflict error, got %v", err)
	}
}

func TestClaim(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(5 * time.Minute))
	owner := uuid.New()

	got, err := fx.svc.Claim(context.Background(), session.Token, owner)
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if got.State != enums.SessionStateClaimed {
		t.Fatalf("expected claimed state, got %s", got.State)
	}
	if got.OwnerID == nil || *got.OwnerID != owner {
		t.Fatal("expected owner to be bound")
	}
	if got.ClaimedAt == nil {
		t.Fatal("expected claimed_at to be set")
	}

	if len(fx.outbox.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(fx.outbox.events))
	}
	if fx.outbox.events[0].EventType != enums.EventSessionClaimed {
		t.Fatalf("unexpected event type %s", fx.outbox.events[0].EventType)
	}
	if len(fx.cache.invalidated) != 1 {
		t.Fatal("expected cache invalidation after claim")
	}
}

func TestClaim_NotFound(t *testing.T) {
	fx := newSessionFixture(t)
	if _, err := fx.svc.Claim(context.Background(), "missing-token", uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestClaim_Expired(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(-time.Second))

	if _, err := fx.svc.Claim(context.Background(), session.Token, uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
	// lazy expiry settles the row while the failure is classified
	if fx.repo.sessions[session.Token].State != enums.SessionStateExpired {
		t.Fatal("expected pending row to be marked expired")
	}
	if len(fx.outbox.events) != 0 {
		t.Fatal("no event expected for a failed claim")
	}
}

func TestClaim_AlreadyClaimed(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(5 * time.Minute))

	if _, err := fx.svc.Claim(context.Background(), session.Token, uuid.New()); err != nil {
		t.Fatalf("first claim error: %v", err)
	}
	if _, err := fx.svc.Claim(context.Background(), session.Token, uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestActivateGuest(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(5 * time.Minute))

	got, err := fx.svc.ActivateGuest(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("ActivateGuest error: %v", err)
	}
	if got.State != enums.SessionStateClaimed {
		t.Fatalf("expected claimed state, got %s", got.State)
	}
	if got.Mode != enums.SessionModeGuest {
		t.Fatalf("expected guest mode, got %s", got.Mode)
	}
	if got.OwnerID != nil {
		t.Fatal("guest session must keep owner null")
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventSessionGuestActivated {
		t.Fatal("expected guest activation event")
	}
}

func TestGetStatus_LazyExpiry(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(-time.Second))

	got, err := fx.svc.GetStatus(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if got.State != enums.SessionStateExpired {
		t.Fatalf("expected lazily-expired state, got %s", got.State)
	}
	// the stored row stays untouched until the sweep
	if fx.repo.sessions[session.Token].State != enums.SessionStatePending {
		t.Fatal("GetStatus must not mutate the stored row")
	}
}

func TestGetStatus_CacheHitRechecksExpiry(t *testing.T) {
	fx := newSessionFixture(t)
	session := fx.addPendingSession(fx.now.Add(time.Minute))

	if _, err := fx.svc.GetStatus(context.Background(), session.Token); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if fx.cache.data[session.Token] == "" {
		t.Fatal("expected snapshot to be cached")
	}

	var cached models.Session
	if err := json.Unmarshal([]byte(fx.cache.data[session.Token]), &cached); err != nil {
		t.Fatalf("unmarshal cached snapshot: %v", err)
	}
	if cached.State != enums.SessionStatePending {
		t.Fatalf("unexpected cached state %s", cached.State)
	}

	// advance past expiry; the stale cached snapshot must not leak pending
	fx.now = fx.now.Add(2 * time.Minute)
	got, err := fx.svc.GetStatus(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if got.State != enums.SessionStateExpired {
		t.Fatalf("expected expired from cache recheck, got %s", got.State)
	}
}

func TestExpireDue(t *testing.T) {
	fx := newSessionFixture(t)
	fx.addPendingSession(fx.now.Add(-time.Minute))
	fx.addPendingSession(fx.now.Add(-time.Second))
	fx.addPendingSession(fx.now.Add(time.Hour))

	expired, err := fx.svc.ExpireDue(context.Background(), 50)
	if err != nil {
		t.Fatalf("ExpireDue error: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 expired sessions, got %d", expired)
	}
	if len(fx.outbox.events) != 2 {
		t.Fatalf("expected 2 expiry events, got %d", len(fx.outbox.events))
	}
	for _, event := range fx.outbox.events {
		if event.EventType != enums.EventSessionExpired {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
	}
}
