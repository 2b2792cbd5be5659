package identity

// Principal is the authenticated identity held by the session store. It
// mirrors what the dealer-management backend returns on login plus the
// bearer tokens needed for upstream calls. A principal with an empty role
// set is authenticated but can only reach unguarded views.
//
// The JSON tags are for session persistence; API handlers must never
// serialize a Principal directly (tokens stay server-side) and return
// their own payload structs instead.
type Principal struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsActive     bool     `json:"is_active"`
	Roles        []string `json:"roles"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
}
