package auth

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-replica/internal/domain"
	tokenrepo "storefront-replica/internal/repository/token"
)

type memUsers struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	m.nextID++
	u.ID = fmt.Sprintf("u%d", m.nextID)
	u.CreatedAt = time.Now().UTC()
	cp := u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) SetEmailVerified(_ context.Context, id string) error {
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

type memTokens struct {
	tokens map[string]tokenrepo.Token
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]tokenrepo.Token{}}
}

func (m *memTokens) Create(_ context.Context, t tokenrepo.Token) error {
	if _, ok := m.tokens[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	m.tokens[t.Token] = t
	return nil
}

func (m *memTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *memTokens) Delete(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *memTokens) DeleteForUser(_ context.Context, userID, kind string) error {
	for k, t := range m.tokens {
		if t.UserID == userID && t.Kind == kind {
			delete(m.tokens, k)
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *memUsers, *memTokens) {
	t.Helper()
	users := newMemUsers()
	tokens := newMemTokens()
	logger := log.New(os.Stdout, "[auth-test] ", log.LstdFlags)
	svc := &Service{
		users:       users,
		tokens:      tokens,
		signer:      newJWTSigner("test-secret", time.Hour),
		logger:      logger,
		refreshTTL:  24 * time.Hour,
		confirmTTL:  24 * time.Hour,
		passwordMin: 8,
		cooldown:    time.Minute,
		lastResend:  map[string]time.Time{},
		subscribers: map[int]func(SessionEvent){},
	}
	return svc, users, tokens
}

func signUpAndConfirm(t *testing.T, svc *Service, email string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, confirm, err := svc.SignUp(ctx, email, "Password1", map[string]string{"full_name": "Test User"})
	require.NoError(t, err)
	require.NoError(t, svc.VerifyConfirmationToken(ctx, confirm))
	return u
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "a@example.com", "Password1", nil)
	require.NoError(t, err)

	_, _, err = svc.SignUp(ctx, "a@example.com", "Password1", nil)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestSignUpWeakPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.SignUp(context.Background(), "a@example.com", "short", nil)
	assert.Error(t, err)

	_, _, err = svc.SignUp(context.Background(), "a@example.com", "alllowercase1", nil)
	assert.Error(t, err)
}

func TestSignInFlows(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "a@example.com", "Password1", nil)
	require.NoError(t, err)

	_, err = svc.SignInWithPassword(ctx, "a@example.com", "Password1")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	signUpAndConfirm(t, svc, "b@example.com")

	_, err = svc.SignInWithPassword(ctx, "b@example.com", "WrongPass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignInWithPassword(ctx, "nobody@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.SignInWithPassword(ctx, "b@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
}

func TestGetSessionRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	signUpAndConfirm(t, svc, "a@example.com")
	sess, err := svc.SignInWithPassword(ctx, "a@example.com", "Password1")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, got.User.ID)
	assert.Equal(t, "a@example.com", got.User.Email)

	_, err = svc.GetSession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	signUpAndConfirm(t, svc, "a@example.com")
	sess, err := svc.SignInWithPassword(ctx, "a@example.com", "Password1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	// old refresh token is consumed
	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	var events []SessionEvent
	unsubscribe := svc.OnSessionChange(func(ev SessionEvent) {
		events = append(events, ev)
	})
	defer unsubscribe()

	u := signUpAndConfirm(t, svc, "a@example.com")
	sess, err := svc.SignInWithPassword(ctx, "a@example.com", "Password1")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, sess.AccessToken))

	require.Len(t, events, 2)
	assert.NotNil(t, events[0].Session)
	assert.Nil(t, events[1].Session)
	assert.Equal(t, u.ID, events[1].UserID)

	for _, tk := range tokens.tokens {
		assert.NotEqual(t, "refresh", tk.Kind, "refresh tokens should be revoked on sign-out")
	}
}

func TestConfirmationTokenIsLogged(t *testing.T) {
	svc, _, tokens := newTestService(t)
	var buf bytes.Buffer
	svc.logger = log.New(&buf, "", 0)
	ctx := context.Background()

	_, confirm, err := svc.SignUp(ctx, "a@example.com", "Password1", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), confirm, "the issued token must be recoverable from the log")

	buf.Reset()
	require.NoError(t, svc.ResendConfirmation(ctx, "a@example.com"))
	reissued := 0
	for value, tk := range tokens.tokens {
		if tk.Kind == "confirm" && value != confirm {
			reissued++
			assert.Contains(t, buf.String(), value, "the reissued token must be recoverable from the log")
		}
	}
	assert.Equal(t, 1, reissued)
}

func TestResendConfirmationCooldown(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "a@example.com", "Password1", nil)
	require.NoError(t, err)

	require.NoError(t, svc.ResendConfirmation(ctx, "a@example.com"))
	assert.ErrorIs(t, svc.ResendConfirmation(ctx, "a@example.com"), ErrResendCooldown)

	// unknown address: silent success, no probing
	assert.NoError(t, svc.ResendConfirmation(ctx, "ghost@example.com"))
}
