package rbac

// Role names are persisted in tokens; renaming one invalidates outstanding
// sessions.
const (
	// RoleOwner manages the tenant, including subscriber endpoints.
	RoleOwner = "owner"
	// RoleOperator works live calls (view, terminate).
	RoleOperator = "operator"
	// RoleViewer has read-only access to calls and usage.
	RoleViewer = "viewer"
	// RoleSuperAdmin is cross-tenant support staff.
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
