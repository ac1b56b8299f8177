package auth

import (
	"time"

	"storefront-replica/internal/domain"
)

// SessionUser is the identity fragment carried inside a session. It is the
// best-effort view of the user at sign-in time; the persisted user record
// remains authoritative for everything except Email.
type SessionUser struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Metadata  map[string]string `json:"userMetadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Session is an authenticated session: the user fragment plus tokens.
type Session struct {
	User         SessionUser `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

// SessionEvent notifies subscribers of a session change. Session is nil when
// the user signed out.
type SessionEvent struct {
	UserID  string
	Session *Session
}

func sessionUserFrom(u *domain.User) SessionUser {
	md := map[string]string{}
	if u.FullName != "" {
		md["full_name"] = u.FullName
	}
	return SessionUser{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		Metadata:  md,
		CreatedAt: u.CreatedAt,
	}
}
