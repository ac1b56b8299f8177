package domain

import "time"

// Role is the coarse access level stored on a user record.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ActionSet enumerates the CRUD actions a permission grant may allow.
type ActionSet struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// PermissionMap maps a resource name (products, categories, orders, ...) to
// the actions allowed on it. A nil map on an admin means unrestricted.
type PermissionMap map[string]ActionSet

// User is the persisted user record. Email mirrors the auth account and is
// never updated through profile writes.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"-"`
	FullName      string        `json:"fullName,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	DateOfBirth   string        `json:"dateOfBirth,omitempty"`
	AvatarURL     string        `json:"avatarUrl,omitempty"`
	Role          Role          `json:"role"`
	Permissions   PermissionMap `json:"permissions,omitempty"`
	EmailVerified bool          `json:"emailVerified"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
