package identity

import (
	"context"
	"time"
)

// Record is the single persisted unit of session state: the principal and
// the explicit logged-in flag. The two are always written and cleared
// together; a record carrying one without the other reads as logged out.
type Record struct {
	Principal *Principal `json:"principal"`
	LoggedIn  bool       `json:"logged_in"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Valid reports whether the record represents a live login. Both signals
// must agree.
func (r *Record) Valid() bool {
	return r != nil && r.Principal != nil && r.LoggedIn
}

// Store is a keyed store of session records. Implementations must treat
// malformed persisted data as absent (Get returns nil, nil) rather than
// failing, and must be safe for concurrent use from any handler.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Set(ctx context.Context, id string, rec *Record) error
	Clear(ctx context.Context, id string) error
}
