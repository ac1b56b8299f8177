package identity

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/domain"
	userrepo "storefront-replica/internal/repository/user"
)

type stubRecords struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	getErr      error
	updateErr   error
	delay       time.Duration
	getCalls    int
	createCalls int
	updateCalls int
}

func newStubRecords() *stubRecords {
	return &stubRecords{users: map[string]*domain.User{}}
}

func (s *stubRecords) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	s.getCalls++
	delay := s.delay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRecords) Create(_ context.Context, u domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if u.ID == "" {
		u.ID = "created-id"
	}
	cp := u
	s.users[u.ID] = &cp
	return &cp, nil
}

func (s *stubRecords) UpdateProfile(_ context.Context, id string, in userrepo.ProfileUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.DateOfBirth != nil {
		u.DateOfBirth = *in.DateOfBirth
	}
	cp := *u
	return &cp, nil
}

type stubAddresses struct {
	list []domain.Address
	err  error
}

func (s *stubAddresses) ListByUser(_ context.Context, _ string) ([]domain.Address, error) {
	return s.list, s.err
}

type stubOrders struct {
	list []domain.Order
	err  error
}

func (s *stubOrders) ListByUser(_ context.Context, _ string) ([]domain.Order, error) {
	return s.list, s.err
}

type stubRefunds struct {
	list []domain.RefundRequest
	err  error
}

func (s *stubRefunds) RefundsByUser(_ context.Context, _ string) ([]domain.RefundRequest, error) {
	return s.list, s.err
}

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[identity-test] ", log.LstdFlags)
}

func sessionFor(id, email string) *auth.Session {
	return &auth.Session{
		User: auth.SessionUser{
			ID:       id,
			Email:    email,
			Phone:    "555-0100",
			Metadata: map[string]string{"full_name": "Session Name"},
		},
		AccessToken: "access-" + id,
	}
}

func TestApplySessionPopulatesBestEffortIdentity(t *testing.T) {
	store := newStore(newStubRecords(), &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())

	store.applySession(sessionFor("u1", "u1@example.com"))

	id := store.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "u1@example.com", id.Email)
	assert.Equal(t, "Session Name", id.FullName)
	assert.Empty(t, id.Role, "role stays empty until the record sync")
	assert.True(t, store.IsAuthenticated())
}

func TestSyncMergesRecordOverSession(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{
		ID:          "u1",
		Email:       "stale-record@example.com",
		FullName:    "Record Name",
		Phone:       "555-0199",
		DateOfBirth: "1990-01-02",
		Role:        domain.RoleAdmin,
	}
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")

	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	id := store.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "Record Name", id.FullName, "record fields win")
	assert.Equal(t, "555-0199", id.Phone)
	assert.Equal(t, "1990-01-02", id.DateOfBirth)
	assert.Equal(t, domain.RoleAdmin, id.Role)
	assert.Equal(t, "u1@example.com", id.Email, "email always comes from the session")
	assert.Equal(t, StateReady, store.State())
}

func TestSyncCreatesMissingRecordFromSession(t *testing.T) {
	records := newStubRecords()
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")

	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	assert.Equal(t, 1, records.createCalls)
	id := store.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "u1@example.com", id.Email)
	assert.Equal(t, "Session Name", id.FullName)
	assert.Equal(t, domain.RoleCustomer, id.Role)
}

func TestSyncFailureCompletesWithoutRetry(t *testing.T) {
	records := newStubRecords()
	records.getErr = errors.New("collaborator down")
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")

	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	assert.Error(t, store.Err())
	assert.Equal(t, StateReady, store.State())
	// identity keeps the best-effort session fields
	id := store.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "u1@example.com", id.Email)

	// a second call is suppressed: completion was recorded despite the error
	store.SyncUserData(context.Background(), sess.User)
	assert.Equal(t, 1, records.getCalls)
}

func TestUpdateProfileMergesReturnedRow(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")
	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	name := "New Name"
	ok := store.UpdateProfile(context.Background(), userrepo.ProfileUpdate{FullName: &name})

	assert.True(t, ok)
	assert.Equal(t, "New Name", store.Identity().FullName)
}

func TestApplyRecordUpdatesCompletedSync(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")
	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)
	require.Equal(t, 1, records.getCalls)

	store.ApplyRecord(&domain.User{
		ID:        "u1",
		Email:     "record@example.com",
		AvatarURL: "/files/avatar.png",
		Role:      domain.RoleCustomer,
	})

	id := store.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "/files/avatar.png", id.AvatarURL)
	assert.Equal(t, "u1@example.com", id.Email, "email always comes from the session")
	assert.Equal(t, 1, records.getCalls, "no extra collaborator call")

	// nil record and signed-out store are ignored
	store.ApplyRecord(nil)
	store.clear()
	store.ApplyRecord(&domain.User{ID: "u1"})
	assert.Nil(t, store.Identity())
}

func TestUpdateProfileFailureReturnsFalse(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com"}
	records.updateErr = errors.New("write failed")
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := sessionFor("u1", "u1@example.com")
	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	name := "New Name"
	ok := store.UpdateProfile(context.Background(), userrepo.ProfileUpdate{FullName: &name})

	assert.False(t, ok)
	assert.Error(t, store.Err())
}

func TestCollectionsSafeDefaultsOnError(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com"}
	store := newStore(records, &stubAddresses{err: errors.New("boom")}, &stubOrders{err: errors.New("boom")}, &stubRefunds{err: errors.New("boom")}, testLogger())
	sess := sessionFor("u1", "u1@example.com")
	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)

	assert.Empty(t, store.Addresses(context.Background()))
	assert.Empty(t, store.Orders(context.Background()))
	assert.Empty(t, store.Refunds(context.Background()))
	assert.Error(t, store.Err())
}

func TestClearWipesEverythingAtOnce(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com"}
	store := newStore(records,
		&stubAddresses{list: []domain.Address{{ID: "a1"}}},
		&stubOrders{list: []domain.Order{{ID: "o1"}}},
		&stubRefunds{list: []domain.RefundRequest{{ID: "r1"}}},
		testLogger())
	ctx := context.Background()
	sess := sessionFor("u1", "u1@example.com")
	store.applySession(sess)
	store.SyncUserData(ctx, sess.User)
	require.Len(t, store.Addresses(ctx), 1)
	require.Len(t, store.Orders(ctx), 1)
	require.Len(t, store.Refunds(ctx), 1)

	store.clear()

	assert.Nil(t, store.Identity())
	assert.Nil(t, store.Session())
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, StateUninitialized, store.State())
	assert.Empty(t, store.Addresses(ctx), "cleared identity loads nothing")
	assert.Empty(t, store.Orders(ctx))
	assert.Empty(t, store.Refunds(ctx))
}
