package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealerhub/internal/authority"
)

type mockAuthority struct {
	authenticateCalls int
	refreshCalls      int
	logoutCalls       int

	loginResult *authority.LoginResult
	loginErr    error
	refreshPair *authority.TokenPair
	refreshErr  error
	logoutErr   error
}

func (m *mockAuthority) Authenticate(_ context.Context, _, _ string) (*authority.LoginResult, error) {
	m.authenticateCalls++
	return m.loginResult, m.loginErr
}

func (m *mockAuthority) RefreshToken(_ context.Context, _, _ string) (*authority.TokenPair, error) {
	m.refreshCalls++
	return m.refreshPair, m.refreshErr
}

func (m *mockAuthority) Logout(_ context.Context, _ string) error {
	m.logoutCalls++
	return m.logoutErr
}

func newTestService(t *testing.T, api *mockAuthority) (*Service, *MemoryStore) {
	t.Helper()
	dir, err := NewFallbackDirectory(DefaultFallbackSeeds())
	require.NoError(t, err)
	store := NewMemoryStore()
	return NewService(api, store, dir, zap.NewNop().Sugar()), store
}

func TestLoginFallbackNeverContactsBackend(t *testing.T) {
	api := &mockAuthority{}
	svc, store := newTestService(t, api)

	p, err := svc.Login(context.Background(), "sid-1", "dealermanager", "admin123")
	require.NoError(t, err)
	assert.Equal(t, 0, api.authenticateCalls)
	assert.Equal(t, []string{"DealerManager"}, p.Roles)
	assert.Equal(t, "local-dealermanager", p.ID)

	rec, err := store.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, rec.Valid())
}

func TestLoginFallbackWrongPasswordFallsThrough(t *testing.T) {
	api := &mockAuthority{loginErr: errors.New("invalid credentials")}
	svc, store := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "dev", "not-dev123")
	require.Error(t, err)
	assert.Equal(t, 1, api.authenticateCalls)

	rec, err := store.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoginBackendSuccessWritesSession(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{
			UserID:       "u-7",
			Roles:        []string{"CompanyStaff"},
			Token:        "tok",
			RefreshToken: "refresh",
		},
	}
	svc, _ := newTestService(t, api)

	p, err := svc.Login(context.Background(), "sid-1", "staff", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-7", p.ID)
	assert.Equal(t, "staff", p.Name)
	assert.Equal(t, "tok", p.Token)
	assert.True(t, svc.IsLoggedIn(context.Background(), "sid-1"))
}

func TestLoginBackendNilRolesBecomeEmpty(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{UserID: "u-8", Token: "t", RefreshToken: "r"},
	}
	svc, _ := newTestService(t, api)

	p, err := svc.Login(context.Background(), "sid-1", "norole", "pw")
	require.NoError(t, err)
	require.NotNil(t, p.Roles)
	assert.Empty(t, p.Roles)
}

func TestLoginDropsUnknownRoles(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{
			UserID: "u-9",
			Roles:  []string{"DealerAdmin", "SuperUser", "dealerstaff"},
			Token:  "t", RefreshToken: "r",
		},
	}
	svc, _ := newTestService(t, api)

	p, err := svc.Login(context.Background(), "sid-1", "someone", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"DealerAdmin"}, p.Roles)
}

func TestLoginFailureLeavesExistingSessionAlone(t *testing.T) {
	api := &mockAuthority{loginErr: errors.New("boom")}
	svc, store := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "dev", "dev123")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "sid-1", "someone", "wrong")
	require.Error(t, err)

	rec, err := store.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, rec.Valid())
	assert.Equal(t, "local-dev", rec.Principal.ID)
}

func TestLogoutWithAuthorityClearsDespiteUpstreamFailure(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{UserID: "u-1", Token: "t", RefreshToken: "r"},
		logoutErr:   errors.New("backend down"),
	}
	svc, store := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "someone", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutWithAuthority(context.Background(), "sid-1"))
	assert.Equal(t, 1, api.logoutCalls)

	rec, err := store.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCurrentReturnsNilWhenLoggedOut(t *testing.T) {
	svc, store := newTestService(t, &mockAuthority{})

	p, err := svc.Current(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	// A record whose flag and principal disagree reads as logged out.
	require.NoError(t, store.Set(context.Background(), "sid-1", &Record{LoggedIn: true}))
	p, err = svc.Current(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{UserID: "u-1", Token: "t", RefreshToken: "r"},
		refreshErr:  errors.New("refresh token revoked"),
	}
	svc, store := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "someone", "pw")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "sid-1")
	require.ErrorIs(t, err, ErrSessionExpired)

	rec, err := store.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRefreshRotatesTokens(t *testing.T) {
	api := &mockAuthority{
		loginResult: &authority.LoginResult{UserID: "u-1", Token: "old", RefreshToken: "old-r"},
		refreshPair: &authority.TokenPair{Token: "new", RefreshToken: "new-r"},
	}
	svc, _ := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "someone", "pw")
	require.NoError(t, err)

	p, err := svc.Refresh(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Token)
	assert.Equal(t, "new-r", p.RefreshToken)

	cur, err := svc.Current(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "new", cur.Token)
}

func TestRefreshSkipsBackendForFallbackPrincipals(t *testing.T) {
	api := &mockAuthority{}
	svc, _ := newTestService(t, api)

	_, err := svc.Login(context.Background(), "sid-1", "dev", "dev123")
	require.NoError(t, err)

	p, err := svc.Refresh(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 0, api.refreshCalls)
	assert.Equal(t, "local-token-dev", p.Token)
}

func TestRefreshWithoutSessionReturnsExpired(t *testing.T) {
	svc, _ := newTestService(t, &mockAuthority{})

	_, err := svc.Refresh(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionExpired)
}
