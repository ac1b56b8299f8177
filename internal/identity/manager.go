package identity

import (
	"context"
	"log"
	"sync"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/changefeed"
)

// AuthClient is the auth-collaborator surface the manager consumes.
type AuthClient interface {
	GetSession(ctx context.Context, accessToken string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	OnSessionChange(fn func(auth.SessionEvent)) func()
}

// Manager owns one identity Store per user and keeps them in step with the
// auth collaborator's session-change notifications. Syncs for the same user
// are de-duplicated through an in-flight map: a second caller arriving while
// a sync is running waits for the first instead of issuing another
// collaborator call.
type Manager struct {
	auth      AuthClient
	records   UserRecords
	addresses AddressSource
	orders    OrderSource
	refunds   RefundSource
	logger    *log.Logger

	mu          sync.Mutex
	stores      map[string]*Store
	inflight    map[string]chan struct{}
	initialized bool
	unsubscribe func()
}

func NewManager(authClient AuthClient, records UserRecords, addresses AddressSource, orders OrderSource, refunds RefundSource, logger *log.Logger) *Manager {
	return &Manager{
		auth:      authClient,
		records:   records,
		addresses: addresses,
		orders:    orders,
		refunds:   refunds,
		logger:    logger,
		stores:    map[string]*Store{},
		inflight:  map[string]chan struct{}{},
	}
}

// Initialize registers the standing session-change subscription. Calling it
// again is a no-op.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return
	}
	m.initialized = true
	m.unsubscribe = m.auth.OnSessionChange(func(ev auth.SessionEvent) {
		if ev.Session == nil {
			m.clearStore(ev.UserID)
			return
		}
		store := m.storeFor(ev.UserID)
		store.applySession(ev.Session)
		go m.sync(context.Background(), store, ev.Session.User)
	})
}

// Close drops the session-change subscription. Safe to call concurrently
// with Initialize and more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// StoreForSession returns the user's store, mirrored to the given session
// and synced against the user record. The sync is synchronous so callers
// observe a ready identity, but concurrent callers share a single
// collaborator round-trip.
func (m *Manager) StoreForSession(ctx context.Context, sess *auth.Session) *Store {
	store := m.storeFor(sess.User.ID)
	store.applySession(sess)
	m.sync(ctx, store, sess.User)
	return store
}

// Peek returns the user's store without touching the collaborator, nil when
// none exists.
func (m *Manager) Peek(userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[userID]
}

// SignOut signs the session out upstream and clears the local store. The
// session-change notification clears it as well; both paths are idempotent.
func (m *Manager) SignOut(ctx context.Context, sess *auth.Session) {
	if err := m.auth.SignOut(ctx, sess.AccessToken); err != nil {
		m.logger.Printf("sign out %s: %v", sess.User.ID, err)
	}
	m.clearStore(sess.User.ID)
}

// HandleRowChange reacts to data-collaborator change events: an out-of-band
// write to a users row marks that user's cached identity stale, and order or
// address writes drop the dependent collection caches.
func (m *Manager) HandleRowChange(_ context.Context, ev changefeed.Event) {
	switch ev.Collection {
	case "users":
		if store := m.Peek(ev.RowID); store != nil {
			store.markStale()
		}
	case "orders", "addresses", "refund_requests":
		m.mu.Lock()
		stores := make([]*Store, 0, len(m.stores))
		for _, s := range m.stores {
			stores = append(stores, s)
		}
		m.mu.Unlock()
		for _, s := range stores {
			s.InvalidateCollections()
		}
	}
}

func (m *Manager) storeFor(userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[userID]
	if !ok {
		store = newStore(m.records, m.addresses, m.orders, m.refunds, m.logger)
		m.stores[userID] = store
	}
	return store
}

func (m *Manager) clearStore(userID string) {
	m.mu.Lock()
	store := m.stores[userID]
	delete(m.stores, userID)
	m.mu.Unlock()
	if store != nil {
		store.clear()
	}
}

// sync runs SyncUserData with per-user de-duplication.
func (m *Manager) sync(ctx context.Context, store *Store, su auth.SessionUser) {
	m.mu.Lock()
	if ch, ok := m.inflight[su.ID]; ok {
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
		}
		return
	}
	ch := make(chan struct{})
	m.inflight[su.ID] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, su.ID)
		m.mu.Unlock()
		close(ch)
	}()

	store.SyncUserData(ctx, su)
}
