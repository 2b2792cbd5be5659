package rbac

// Role is one of the fixed role names issued by the dealer-management
// backend. Role names are case-sensitive and arrive from the backend as
// plain strings; anything outside this vocabulary never grants access.
type Role string

const (
	CompanyAdmin   Role = "CompanyAdmin"
	CompanyStaff   Role = "CompanyStaff"
	CompanyManager Role = "CompanyManager"
	DealerAdmin    Role = "DealerAdmin"
	DealerStaff    Role = "DealerStaff"
	DealerManager  Role = "DealerManager"
)

// aliases maps a role to the set of roles that satisfy a check for it.
// Manager roles are equivalent to their Admin counterparts in both
// directions; checking either name succeeds when the principal holds the
// other.
var aliases = map[Role][]Role{
	CompanyAdmin:   {CompanyAdmin, CompanyManager},
	CompanyManager: {CompanyManager, CompanyAdmin},
	DealerAdmin:    {DealerAdmin, DealerManager},
	DealerManager:  {DealerManager, DealerAdmin},
}

var vocabulary = map[Role]struct{}{
	CompanyAdmin:   {},
	CompanyStaff:   {},
	CompanyManager: {},
	DealerAdmin:    {},
	DealerStaff:    {},
	DealerManager:  {},
}

// Parse maps a raw role name onto the closed vocabulary. Unknown or
// misspelled names report false and must be treated as granting nothing.
func Parse(name string) (Role, bool) {
	r := Role(name)
	_, ok := vocabulary[r]
	return r, ok
}

// Normalize filters a raw role list down to the known vocabulary.
// Unknown names grant nothing anywhere, so they are dropped at the door
// rather than carried through session state. Always returns a non-nil
// slice.
func Normalize(roleSet []string) []string {
	out := make([]string, 0, len(roleSet))
	for _, name := range roleSet {
		if role, ok := Parse(name); ok {
			out = append(out, string(role))
		}
	}
	return out
}

// Equivalents returns the alias class for role. Roles outside the alias
// table satisfy only themselves.
func Equivalents(role Role) []Role {
	if eq, ok := aliases[role]; ok {
		return eq
	}
	return []Role{role}
}

// HasRole reports whether roleSet contains role or any member of its
// alias class. Pure and total: a nil or empty roleSet is false, never a
// panic.
func HasRole(roleSet []string, role Role) bool {
	if len(roleSet) == 0 {
		return false
	}
	for _, eq := range Equivalents(role) {
		for _, held := range roleSet {
			if held == string(eq) {
				return true
			}
		}
	}
	return false
}

// HasAnyRole reports whether at least one of roles is satisfied.
// An empty roles list is false: a query that asks for nothing grants
// nothing.
func HasAnyRole(roleSet []string, roles []Role) bool {
	for _, role := range roles {
		if HasRole(roleSet, role) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether every one of roles is satisfied.
// An empty roles list is vacuously true.
func HasAllRoles(roleSet []string, roles []Role) bool {
	if len(roleSet) == 0 && len(roles) > 0 {
		return false
	}
	for _, role := range roles {
		if !HasRole(roleSet, role) {
			return false
		}
	}
	return true
}

// IsAdmin is shorthand for holding CompanyAdmin or DealerAdmin (or a
// manager equivalent of either).
func IsAdmin(roleSet []string) bool {
	return HasAnyRole(roleSet, []Role{CompanyAdmin, DealerAdmin})
}
