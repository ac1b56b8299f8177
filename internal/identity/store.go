package identity

import (
	"context"
	"errors"
	"log"
	"sync"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/domain"
	userrepo "storefront-replica/internal/repository/user"
)

// State is the sync lifecycle of a Store.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateSyncing       State = "syncing"
	StateReady         State = "ready"
)

// UserRecords is the data-collaborator surface the store needs.
type UserRecords interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in userrepo.ProfileUpdate) (*domain.User, error)
}

// AddressSource, OrderSource and RefundSource load the collections cached
// alongside the identity and cleared with it on sign-out.
type AddressSource interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}

type OrderSource interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type RefundSource interface {
	RefundsByUser(ctx context.Context, userID string) ([]domain.RefundRequest, error)
}

// Store mirrors one user's session into a merged Identity. All methods are
// safe for concurrent use; collaborator failures are logged and converted to
// safe defaults, never propagated to callers as panics or raw errors.
type Store struct {
	records   UserRecords
	addresses AddressSource
	orders    OrderSource
	refunds   RefundSource
	logger    *log.Logger

	mu            sync.Mutex
	state         State
	identity      *Identity
	session       *auth.Session
	syncCompleted bool
	lastErr       error

	addressCache []domain.Address
	orderCache   []domain.Order
	refundCache  []domain.RefundRequest
}

func newStore(records UserRecords, addresses AddressSource, orders OrderSource, refunds RefundSource, logger *log.Logger) *Store {
	return &Store{
		records:   records,
		addresses: addresses,
		orders:    orders,
		refunds:   refunds,
		logger:    logger,
		state:     StateUninitialized,
	}
}

// State returns the current sync state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns a copy of the merged identity, nil when signed out.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Session returns the mirrored session reference.
func (s *Store) Session() *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// IsAuthenticated reports whether a session is currently mirrored.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Err returns the last collaborator error, for reactive surfaces to render.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// applySession mirrors a new session and installs the phase-one identity
// when the cached one does not already belong to this session's user with a
// synced role.
func (s *Store) applySession(sess *auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	cached := s.identity
	if cached == nil || cached.Role == "" || cached.Email != sess.User.Email {
		s.identity = fromSession(sess.User)
	}
}

// SyncUserData loads (or creates) the user record and merges it over the
// session-derived identity. A completed sync for the same user id is
// skipped. The completion flag is set even when the lookup fails so a
// broken collaborator cannot cause a retry storm; the failure is logged.
func (s *Store) SyncUserData(ctx context.Context, su auth.SessionUser) {
	s.mu.Lock()
	if s.syncCompleted && s.identity != nil && s.identity.ID == su.ID {
		s.mu.Unlock()
		return
	}
	s.state = StateSyncing
	s.mu.Unlock()

	record, err := s.records.GetByID(ctx, su.ID)
	if errors.Is(err, domain.ErrNotFound) {
		record, err = s.records.Create(ctx, domain.User{
			Email:    su.Email,
			FullName: su.Metadata["full_name"],
			Phone:    su.Phone,
			Role:     domain.RoleCustomer,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCompleted = true
	s.state = StateReady
	if err != nil {
		s.lastErr = err
		s.logger.Printf("sync user %s: %v", su.ID, err)
		return
	}
	s.lastErr = nil
	s.identity = mergeRecord(record, su.Email)
}

// UpdateProfile writes the mutable profile fields and merges the returned
// authoritative row back in. Failures are stored and reported as false.
func (s *Store) UpdateProfile(ctx context.Context, in userrepo.ProfileUpdate) bool {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return false
	}
	id := s.identity.ID
	email := s.identity.Email
	s.mu.Unlock()

	record, err := s.records.UpdateProfile(ctx, id, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Printf("update profile %s: %v", id, err)
		return false
	}
	s.lastErr = nil
	s.identity = mergeRecord(record, email)
	return true
}

// ApplyRecord merges an already-written user record over the identity, for
// callers that update the record outside the store. Without it a completed
// sync would keep serving the pre-write fields until something marks the
// store stale. Email keeps the session value; a nil record or a signed-out
// store is ignored.
func (s *Store) ApplyRecord(record *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record == nil || s.identity == nil {
		return
	}
	s.identity = mergeRecord(record, s.identity.Email)
}

// Addresses returns the cached address collection, loading it on first use.
// Collaborator errors yield an empty slice.
func (s *Store) Addresses(ctx context.Context) []domain.Address {
	s.mu.Lock()
	if s.addressCache != nil || s.identity == nil {
		defer s.mu.Unlock()
		return append([]domain.Address(nil), s.addressCache...)
	}
	id := s.identity.ID
	s.mu.Unlock()

	list, err := s.addresses.ListByUser(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Printf("load addresses %s: %v", id, err)
		return []domain.Address{}
	}
	if list == nil {
		list = []domain.Address{}
	}
	s.addressCache = list
	return append([]domain.Address(nil), list...)
}

// Orders returns the cached order collection, loading it on first use.
func (s *Store) Orders(ctx context.Context) []domain.Order {
	s.mu.Lock()
	if s.orderCache != nil || s.identity == nil {
		defer s.mu.Unlock()
		return append([]domain.Order(nil), s.orderCache...)
	}
	id := s.identity.ID
	s.mu.Unlock()

	list, err := s.orders.ListByUser(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Printf("load orders %s: %v", id, err)
		return []domain.Order{}
	}
	if list == nil {
		list = []domain.Order{}
	}
	s.orderCache = list
	return append([]domain.Order(nil), list...)
}

// Refunds returns the cached refund-request collection, loading it on first
// use.
func (s *Store) Refunds(ctx context.Context) []domain.RefundRequest {
	s.mu.Lock()
	if s.refundCache != nil || s.identity == nil {
		defer s.mu.Unlock()
		return append([]domain.RefundRequest(nil), s.refundCache...)
	}
	id := s.identity.ID
	s.mu.Unlock()

	list, err := s.refunds.RefundsByUser(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Printf("load refunds %s: %v", id, err)
		return []domain.RefundRequest{}
	}
	if list == nil {
		list = []domain.RefundRequest{}
	}
	s.refundCache = list
	return append([]domain.RefundRequest(nil), list...)
}

// InvalidateCollections drops the cached collections so the next read
// reloads them.
func (s *Store) InvalidateCollections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addressCache = nil
	s.orderCache = nil
	s.refundCache = nil
}

// markStale forces the next SyncUserData to hit the collaborator again.
func (s *Store) markStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCompleted = false
}

// clear wipes identity, session and every dependent cache in one critical
// section: observers never see a partially cleared store.
func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.session = nil
	s.syncCompleted = false
	s.state = StateUninitialized
	s.lastErr = nil
	s.addressCache = nil
	s.orderCache = nil
	s.refundCache = nil
}
