package identity

import (
	"storefront-replica/internal/domain"
)

// IsAdmin reports whether the merged identity carries exactly the admin
// role.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil && s.identity.Role == domain.RoleAdmin
}

// HasPermission reports whether the identity may perform action on resource.
// Non-admins never have permissions. An admin with no permissions map is
// unrestricted; otherwise the map's boolean is returned verbatim.
func (s *Store) HasPermission(resource, action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.identity.Role != domain.RoleAdmin {
		return false
	}
	if s.identity.Permissions == nil {
		return true
	}
	set, ok := s.identity.Permissions[resource]
	if !ok {
		return false
	}
	switch action {
	case "create":
		return set.Create
	case "read":
		return set.Read
	case "update":
		return set.Update
	case "delete":
		return set.Delete
	default:
		return false
	}
}

// CanAccess reports whether the identity may open an admin route. Routes
// without an entry in the route table are open to any admin.
func (s *Store) CanAccess(route string) bool {
	if !s.IsAdmin() {
		return false
	}
	req, ok := routePermissions[route]
	if !ok {
		return true
	}
	return s.HasPermission(req.Resource, req.Action)
}
