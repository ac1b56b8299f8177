package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/domain"
)

func storeWithUser(t *testing.T, u *domain.User) *Store {
	t.Helper()
	records := newStubRecords()
	records.users[u.ID] = u
	store := newStore(records, &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	sess := &auth.Session{User: auth.SessionUser{ID: u.ID, Email: u.Email}}
	store.applySession(sess)
	store.SyncUserData(context.Background(), sess.User)
	return store
}

func TestIsAdmin(t *testing.T) {
	admin := storeWithUser(t, &domain.User{ID: "a", Email: "a@x.com", Role: domain.RoleAdmin})
	customer := storeWithUser(t, &domain.User{ID: "c", Email: "c@x.com", Role: domain.RoleCustomer})
	weird := storeWithUser(t, &domain.User{ID: "w", Email: "w@x.com", Role: "superadmin"})

	assert.True(t, admin.IsAdmin())
	assert.False(t, customer.IsAdmin())
	assert.False(t, weird.IsAdmin(), "only the exact admin role counts")

	empty := newStore(newStubRecords(), &stubAddresses{}, &stubOrders{}, &stubRefunds{}, testLogger())
	assert.False(t, empty.IsAdmin())
}

func TestHasPermission_SuperAdminConvention(t *testing.T) {
	// admin with no permissions map is unrestricted
	admin := storeWithUser(t, &domain.User{ID: "a", Email: "a@x.com", Role: domain.RoleAdmin})

	assert.True(t, admin.HasPermission("orders", "read"))
	assert.True(t, admin.HasPermission("products", "delete"))
}

func TestHasPermission_MirrorsMap(t *testing.T) {
	perms := domain.PermissionMap{
		"orders": {Read: true, Update: true},
	}
	admin := storeWithUser(t, &domain.User{ID: "a", Email: "a@x.com", Role: domain.RoleAdmin, Permissions: perms})

	assert.True(t, admin.HasPermission("orders", "read"))
	assert.True(t, admin.HasPermission("orders", "update"))
	assert.False(t, admin.HasPermission("orders", "create"))
	assert.False(t, admin.HasPermission("orders", "delete"))
	assert.False(t, admin.HasPermission("products", "read"), "absent resource denies")
	assert.False(t, admin.HasPermission("orders", "approve"), "unknown action denies")
}

func TestHasPermission_NonAdminAlwaysDenied(t *testing.T) {
	perms := domain.PermissionMap{"orders": {Read: true}}
	customer := storeWithUser(t, &domain.User{ID: "c", Email: "c@x.com", Role: domain.RoleCustomer, Permissions: perms})

	assert.False(t, customer.HasPermission("orders", "read"))
}

func TestCanAccess(t *testing.T) {
	perms := domain.PermissionMap{
		"products": {Read: true},
	}
	admin := storeWithUser(t, &domain.User{ID: "a", Email: "a@x.com", Role: domain.RoleAdmin, Permissions: perms})
	customer := storeWithUser(t, &domain.User{ID: "c", Email: "c@x.com", Role: domain.RoleCustomer})

	assert.True(t, admin.CanAccess("/admin/products"))
	assert.False(t, admin.CanAccess("/admin/orders"), "route table delegates to the map")
	assert.True(t, admin.CanAccess("/admin/dashboard"), "unlisted routes only require the admin role")
	assert.False(t, customer.CanAccess("/admin/dashboard"))
}
