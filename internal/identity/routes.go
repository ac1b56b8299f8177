package identity

// RoutePermission binds an admin route to the permission it requires.
type RoutePermission struct {
	Resource string
	Action   string
}

// routePermissions is the fixed route table consulted by CanAccess. Admin
// routes missing from the table require only the admin role.
var routePermissions = map[string]RoutePermission{
	"/admin/products":       {Resource: "products", Action: "read"},
	"/admin/products/new":   {Resource: "products", Action: "create"},
	"/admin/products/edit":  {Resource: "products", Action: "update"},
	"/admin/categories":     {Resource: "categories", Action: "read"},
	"/admin/categories/new": {Resource: "categories", Action: "create"},
	"/admin/orders":         {Resource: "orders", Action: "read"},
	"/admin/orders/status":  {Resource: "orders", Action: "update"},
	"/admin/refunds":        {Resource: "refunds", Action: "read"},
}
