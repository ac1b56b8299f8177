// Package auth implements the authentication collaborator: password
// sign-in/sign-up, JWT access tokens, opaque refresh and confirmation
// tokens, and session-change notifications.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront-replica/internal/domain"
	tokenrepo "storefront-replica/internal/repository/token"
	userrepo "storefront-replica/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrEmailNotConfirmed is returned on sign-in before email confirmation.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrAlreadyRegistered is returned when the signup email is taken.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrResendCooldown throttles confirmation resends.
	ErrResendCooldown = errors.New("you can only request this once every 60 seconds")
)

type userStore interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string) error
}

// Service handles the full session lifecycle.
type Service struct {
	users       userStore
	tokens      tokenrepo.Repository
	signer      *jwtSigner
	logger      *log.Logger
	refreshTTL  time.Duration
	confirmTTL  time.Duration
	passwordMin int

	cooldown       time.Duration
	cooldownMu     sync.Mutex
	lastResend     map[string]time.Time
	subscribersMu  sync.Mutex
	subscribers    map[int]func(SessionEvent)
	nextSubscriber int
}

// Options tunes token lifetimes and the resend cooldown.
type Options struct {
	JWTSecret      string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	ResendCooldown time.Duration
}

// New creates a Service with sane defaults for anything unset.
func New(users userrepo.Repository, tokens tokenrepo.Repository, logger *log.Logger, opts Options) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 48 * time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = time.Minute
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		signer:      newJWTSigner(opts.JWTSecret, opts.AccessTTL),
		logger:      logger,
		refreshTTL:  opts.RefreshTTL,
		confirmTTL:  24 * time.Hour,
		passwordMin: 8,
		cooldown:    opts.ResendCooldown,
		lastResend:  map[string]time.Time{},
		subscribers: map[int]func(SessionEvent){},
	}
}

// SignUp registers a user and issues a confirmation token. Email sending is
// out of scope; the token is returned and logged for delivery.
func (s *Service) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", errors.New("email required")
	}
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	created, err := s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     metadata["full_name"],
		Phone:        metadata["phone"],
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", ErrAlreadyRegistered
		}
		return nil, "", err
	}

	confirm, err := s.issueOpaque(ctx, created.ID, "confirm", s.confirmTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Printf("confirmation token issued for %s: %s", email, confirm)
	return created, confirm, nil
}

// SignInWithPassword validates credentials and returns a full session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotConfirmed
	}

	sess, err := s.buildSession(ctx, u, true)
	if err != nil {
		return nil, err
	}
	s.notify(SessionEvent{UserID: u.ID, Session: sess})
	return sess, nil
}

// GetSession resolves an access token into a session, or ErrInvalidToken.
func (s *Service) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.signer.validate(accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Session{
		User:        sessionUserFrom(u),
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Refresh rotates a refresh token into a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	t, err := s.tokens.Get(ctx, refreshToken)
	if err != nil || t.Kind != "refresh" {
		return nil, ErrInvalidToken
	}
	if time.Now().After(t.ExpiresAt) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	_ = s.tokens.Delete(ctx, refreshToken)

	sess, err := s.buildSession(ctx, u, true)
	if err != nil {
		return nil, err
	}
	s.notify(SessionEvent{UserID: u.ID, Session: sess})
	return sess, nil
}

// SignOut revokes the user's refresh tokens and notifies subscribers with a
// nil session. An unparseable access token is treated as already signed out.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.signer.validate(accessToken)
	if err != nil {
		return nil
	}
	if err := s.tokens.DeleteForUser(ctx, claims.UserID, "refresh"); err != nil {
		s.logger.Printf("revoke refresh tokens for %s: %v", claims.UserID, err)
	}
	s.notify(SessionEvent{UserID: claims.UserID, Session: nil})
	return nil
}

// ResendConfirmation reissues a confirmation token, throttled per address.
// Unknown addresses succeed silently so the endpoint cannot be used to probe
// for accounts.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	s.cooldownMu.Lock()
	if last, ok := s.lastResend[email]; ok && time.Since(last) < s.cooldown {
		s.cooldownMu.Unlock()
		return ErrResendCooldown
	}
	s.lastResend[email] = time.Now()
	s.cooldownMu.Unlock()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.EmailVerified {
		return nil
	}
	confirm, err := s.issueOpaque(ctx, u.ID, "confirm", s.confirmTTL)
	if err != nil {
		return err
	}
	s.logger.Printf("confirmation token reissued for %s: %s", email, confirm)
	return nil
}

// VerifyConfirmationToken marks the token's user as verified and consumes
// the token.
func (s *Service) VerifyConfirmationToken(ctx context.Context, token string) error {
	t, err := s.tokens.Get(ctx, token)
	if err != nil || t.Kind != "confirm" {
		return ErrInvalidToken
	}
	if time.Now().After(t.ExpiresAt) {
		_ = s.tokens.Delete(ctx, token)
		return ErrInvalidToken
	}
	if err := s.users.SetEmailVerified(ctx, t.UserID); err != nil {
		return err
	}
	return s.tokens.Delete(ctx, token)
}

// OnSessionChange registers a subscriber for sign-in/sign-out events and
// returns its unsubscribe function.
func (s *Service) OnSessionChange(fn func(SessionEvent)) func() {
	s.subscribersMu.Lock()
	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = fn
	s.subscribersMu.Unlock()
	return func() {
		s.subscribersMu.Lock()
		delete(s.subscribers, id)
		s.subscribersMu.Unlock()
	}
}

func (s *Service) notify(ev SessionEvent) {
	s.subscribersMu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subscribersMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) buildSession(ctx context.Context, u *domain.User, withRefresh bool) (*Session, error) {
	access, expiresAt, err := s.signer.issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		User:        sessionUserFrom(u),
		AccessToken: access,
		ExpiresAt:   expiresAt,
	}
	if withRefresh {
		refresh, err := s.issueOpaque(ctx, u.ID, "refresh", s.refreshTTL)
		if err != nil {
			return nil, err
		}
		sess.RefreshToken = refresh
	}
	return sess, nil
}

func (s *Service) issueOpaque(ctx context.Context, userID, kind string, ttl time.Duration) (string, error) {
	expiresAt := time.Now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = s.tokens.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      kind,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
