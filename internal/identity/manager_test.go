package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/changefeed"
	"storefront-replica/internal/domain"
)

type stubAuth struct {
	mu          sync.Mutex
	subscribers []func(auth.SessionEvent)
	signOuts    int
}

func (s *stubAuth) GetSession(_ context.Context, _ string) (*auth.Session, error) {
	return nil, auth.ErrInvalidToken
}

func (s *stubAuth) SignOut(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	return nil
}

func (s *stubAuth) OnSessionChange(fn func(auth.SessionEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
	return func() {}
}

func (s *stubAuth) emit(ev auth.SessionEvent) {
	s.mu.Lock()
	subs := append(([]func(auth.SessionEvent))(nil), s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func newTestManager(records *stubRecords) (*Manager, *stubAuth) {
	authClient := &stubAuth{}
	m := NewManager(authClient, records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	return m, authClient
}

func TestInitializeIsIdempotent(t *testing.T) {
	m, authClient := newTestManager(newStubRecords())

	m.Initialize()
	m.Initialize()

	assert.Len(t, authClient.subscribers, 1)
}

func TestConcurrentInitializeAndClose(t *testing.T) {
	m, authClient := newTestManager(newStubRecords())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Initialize()
		}()
		go func() {
			defer wg.Done()
			m.Close()
		}()
	}
	wg.Wait()
	m.Close()

	assert.Len(t, authClient.subscribers, 1)
}

func TestConcurrentSyncsShareOneLookup(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	records.delay = 50 * time.Millisecond
	m, _ := newTestManager(records)
	sess := sessionFor("u1", "u1@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.StoreForSession(context.Background(), sess)
		}()
	}
	wg.Wait()

	records.mu.Lock()
	calls := records.getCalls
	records.mu.Unlock()
	assert.Equal(t, 1, calls, "in-flight de-duplication must collapse concurrent syncs")
	assert.Equal(t, 0, records.createCalls)
}

func TestSessionChangeEventsDriveStores(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	m, authClient := newTestManager(records)
	m.Initialize()

	sess := sessionFor("u1", "u1@example.com")
	authClient.emit(auth.SessionEvent{UserID: "u1", Session: sess})

	require.Eventually(t, func() bool {
		store := m.Peek("u1")
		return store != nil && store.State() == StateReady
	}, time.Second, 5*time.Millisecond)

	authClient.emit(auth.SessionEvent{UserID: "u1", Session: nil})
	assert.Nil(t, m.Peek("u1"), "nil session clears the store")
}

func TestSignOutClearsStore(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com"}
	m, authClient := newTestManager(records)
	sess := sessionFor("u1", "u1@example.com")
	store := m.StoreForSession(context.Background(), sess)
	require.NotNil(t, store.Identity())

	m.SignOut(context.Background(), sess)

	assert.Equal(t, 1, authClient.signOuts)
	assert.Nil(t, store.Identity())
	assert.Nil(t, m.Peek("u1"))
}

func TestRowChangeMarksIdentityStale(t *testing.T) {
	records := newStubRecords()
	records.users["u1"] = &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	m, _ := newTestManager(records)
	sess := sessionFor("u1", "u1@example.com")
	m.StoreForSession(context.Background(), sess)
	require.Equal(t, 1, records.getCalls)

	// same session again: completed sync is suppressed
	m.StoreForSession(context.Background(), sess)
	require.Equal(t, 1, records.getCalls)

	m.HandleRowChange(context.Background(), changefeed.Event{Collection: "users", Op: changefeed.OpUpdate, RowID: "u1"})

	m.StoreForSession(context.Background(), sess)
	assert.Equal(t, 2, records.getCalls, "stale identity re-syncs on next access")
}
