package rbac

// Requirement describes the role check attached to a guarded view or
// action. Zero value admits any signed-in principal.
type Requirement struct {
	Roles      []Role
	RequireAll bool // require every role instead of at least one
	Inverse    bool // admit when the check fails (inline guards only)
}

// Outcome of evaluating a guarded view for a principal.
type Outcome int

const (
	// Admit renders the protected content unchanged.
	Admit Outcome = iota
	// RedirectSignIn sends an unauthenticated caller to the sign-in view,
	// carrying the originally requested location.
	RedirectSignIn
	// RedirectFallback sends a signed-in but unauthorized caller to the
	// configured fallback path with an explanatory message.
	RedirectFallback
)

// DefaultFallbackPath is where unauthorized principals land when a guard
// has no explicit fallback configured.
const DefaultFallbackPath = "/signin"

// PermissionDeniedMessage is the explanatory error carried on the
// fallback redirect.
const PermissionDeniedMessage = "You do not have permission to access this page"

type Decision struct {
	Outcome Outcome
	Reason  string
}

// Evaluate decides admission for a guarded view. The session state must
// already be resolved; there is no pending state server-side.
func Evaluate(loggedIn bool, roleSet []string, req Requirement) Decision {
	if !loggedIn {
		return Decision{Outcome: RedirectSignIn}
	}
	if len(req.Roles) == 0 {
		return Decision{Outcome: Admit}
	}
	if !satisfies(roleSet, req) {
		return Decision{Outcome: RedirectFallback, Reason: PermissionDeniedMessage}
	}
	return Decision{Outcome: Admit}
}

// Allow is the inline variant used to show or hide individual actions in
// place. Unlike Evaluate it honors Inverse, which flips the admission
// result (used for "upgrade your access" style prompts). An unauthenticated
// caller is never admitted, regardless of Inverse.
func Allow(loggedIn bool, roleSet []string, req Requirement) bool {
	if !loggedIn {
		return false
	}
	if len(req.Roles) == 0 {
		return true
	}
	ok := satisfies(roleSet, req)
	if req.Inverse {
		return !ok
	}
	return ok
}

func satisfies(roleSet []string, req Requirement) bool {
	if req.RequireAll {
		return HasAllRoles(roleSet, req.Roles)
	}
	return HasAnyRole(roleSet, req.Roles)
}
