// Package identity mirrors authentication sessions into merged local user
// profiles and answers authorization questions about them.
//
// An Identity is built in two phases: the instant a session appears it is
// populated best-effort from session fields, then a sync against the user
// record overwrites every field the record carries. Email is the one
// exception and is always taken from the session.
package identity

import (
	"storefront-replica/internal/auth"
	"storefront-replica/internal/domain"
)

// Identity is the locally merged profile of an authenticated user.
type Identity struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	FullName    string               `json:"fullName,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	DateOfBirth string               `json:"dateOfBirth,omitempty"`
	AvatarURL   string               `json:"avatarUrl,omitempty"`
	Role        domain.Role          `json:"role,omitempty"`
	Permissions domain.PermissionMap `json:"permissions,omitempty"`
}

// fromSession builds the phase-one, best-effort identity. Role and
// permissions stay empty until the record sync fills them in.
func fromSession(u auth.SessionUser) *Identity {
	return &Identity{
		ID:       u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		FullName: u.Metadata["full_name"],
	}
}

// mergeRecord is the phase-two merge: record fields win wherever the record
// carries a value, except Email which always comes from the session.
func mergeRecord(record *domain.User, sessionEmail string) *Identity {
	id := &Identity{
		ID:          record.ID,
		Email:       sessionEmail,
		FullName:    record.FullName,
		Phone:       record.Phone,
		DateOfBirth: record.DateOfBirth,
		AvatarURL:   record.AvatarURL,
		Role:        record.Role,
		Permissions: record.Permissions,
	}
	if id.Email == "" {
		id.Email = record.Email
	}
	return id
}
