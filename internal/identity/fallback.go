package identity

import (
	"dealerhub/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

type password struct {
	hash []byte `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.hash = hash
	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// FallbackAccount is a credential pair resolved locally, without
// contacting the dealer-management backend. Used for demo and offline
// access; one account per role plus the legacy dev account.
type FallbackAccount struct {
	Username string
	Name     string
	Role     rbac.Role
	password password
}

// Principal synthesizes a deterministic principal for the account. The
// id scheme is fixed so repeated logins produce the same identity.
func (a *FallbackAccount) Principal() *Principal {
	return &Principal{
		ID:           "local-" + a.Username,
		Username:     a.Username,
		Name:         a.Name,
		Email:        a.Username + "@dealerhub.local",
		IsActive:     true,
		Roles:        []string{string(a.Role)},
		Token:        "local-token-" + a.Username,
		RefreshToken: "local-refresh-" + a.Username,
	}
}

// FallbackDirectory matches credentials against the fixed account table.
type FallbackDirectory struct {
	accounts map[string]*FallbackAccount
}

type FallbackSeed struct {
	Username string
	Password string
	Name     string
	Role     rbac.Role
}

// DefaultFallbackSeeds mirrors the demo accounts the original client
// shipped with: the dev account plus one account per backend role.
func DefaultFallbackSeeds() []FallbackSeed {
	return []FallbackSeed{
		{Username: "dev", Password: "dev123", Name: "Developer", Role: rbac.CompanyAdmin},
		{Username: "companyadmin", Password: "admin123", Name: "Company Admin", Role: rbac.CompanyAdmin},
		{Username: "companymanager", Password: "admin123", Name: "Company Manager", Role: rbac.CompanyManager},
		{Username: "companystaff", Password: "staff123", Name: "Company Staff", Role: rbac.CompanyStaff},
		{Username: "dealeradmin", Password: "admin123", Name: "Dealer Admin", Role: rbac.DealerAdmin},
		{Username: "dealermanager", Password: "admin123", Name: "Dealer Manager", Role: rbac.DealerManager},
		{Username: "dealerstaff", Password: "staff123", Name: "Dealer Staff", Role: rbac.DealerStaff},
	}
}

// NewFallbackDirectory hashes the seed passwords once at startup so every
// comparison afterwards goes through bcrypt.
func NewFallbackDirectory(seeds []FallbackSeed) (*FallbackDirectory, error) {
	dir := &FallbackDirectory{accounts: make(map[string]*FallbackAccount, len(seeds))}
	for _, seed := range seeds {
		acct := &FallbackAccount{
			Username: seed.Username,
			Name:     seed.Name,
			Role:     seed.Role,
		}
		if err := acct.password.Set(seed.Password); err != nil {
			return nil, err
		}
		dir.accounts[seed.Username] = acct
	}
	return dir, nil
}

// Match returns the account only when both username and password match
// exactly; any mismatch falls through to the remote authority.
func (d *FallbackDirectory) Match(username, pass string) (*FallbackAccount, bool) {
	acct, ok := d.accounts[username]
	if !ok {
		return nil, false
	}
	if err := acct.password.Compare(pass); err != nil {
		return nil, false
	}
	return acct, true
}
