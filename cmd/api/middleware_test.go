package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealerhub/internal/auth"
	"dealerhub/internal/authority"
	"dealerhub/internal/catalog"
	"dealerhub/internal/domain/restock"
	"dealerhub/internal/domain/testdrive"
	"dealerhub/internal/identity"
)

type stubAuthority struct{}

func (stubAuthority) Authenticate(context.Context, string, string) (*authority.LoginResult, error) {
	return nil, &authority.StatusError{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"}
}

func (stubAuthority) RefreshToken(context.Context, string, string) (*authority.TokenPair, error) {
	return nil, assert.AnError
}

func (stubAuthority) Logout(context.Context, string) error { return nil }

type stubTestDriveAPI struct {
	bookings map[string]*testdrive.Booking
}

func (s *stubTestDriveAPI) List(context.Context, string, testdrive.Filters) ([]testdrive.Booking, error) {
	var out []testdrive.Booking
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubTestDriveAPI) Get(_ context.Context, _ string, id string) (*testdrive.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, &authority.StatusError{StatusCode: http.StatusNotFound, Message: "not found"}
	}
	cp := *b
	return &cp, nil
}

func (s *stubTestDriveAPI) Create(_ context.Context, _ string, in *testdrive.CreateInput) (*testdrive.Booking, error) {
	return &testdrive.Booking{ID: "td-new", Status: testdrive.StatusPending, CustomerName: in.CustomerName}, nil
}

func (s *stubTestDriveAPI) Update(_ context.Context, _ string, id string, _ *testdrive.UpdateInput) (*testdrive.Booking, error) {
	return s.bookings[id], nil
}

func (s *stubTestDriveAPI) UpdateStatus(_ context.Context, _ string, id string, status testdrive.Status) error {
	s.bookings[id].Status = status
	return nil
}

func (s *stubTestDriveAPI) Delete(_ context.Context, _ string, id string) error {
	delete(s.bookings, id)
	return nil
}

func (s *stubTestDriveAPI) Approve(_ context.Context, _ string, id, approvedBy string) error {
	s.bookings[id].Status = testdrive.StatusApproved
	s.bookings[id].ApprovedBy = approvedBy
	return nil
}

func (s *stubTestDriveAPI) Reject(_ context.Context, _ string, id, _, reason string) error {
	s.bookings[id].Status = testdrive.StatusRejected
	s.bookings[id].RejectionReason = reason
	return nil
}

type stubRestockAPI struct{}

func (stubRestockAPI) List(context.Context, string, restock.Filters) ([]restock.Request, error) {
	return nil, nil
}

func (stubRestockAPI) Get(context.Context, string, string) (*restock.Request, error) {
	return nil, assert.AnError
}

func (stubRestockAPI) Create(context.Context, string, *restock.CreateInput) (*restock.Request, error) {
	return nil, assert.AnError
}

func (stubRestockAPI) DealerAccept(context.Context, string, string) error { return assert.AnError }
func (stubRestockAPI) DealerReject(context.Context, string, string, string) error {
	return assert.AnError
}
func (stubRestockAPI) SetStatus(context.Context, string, string, restock.Status, string) error {
	return assert.AnError
}

type stubCatalogAPI struct{}

func (stubCatalogAPI) Vehicles(context.Context, string) ([]catalog.Vehicle, error) {
	return []catalog.Vehicle{{ID: "v-1", Make: "Toyota", IsAvailable: true}}, nil
}

func (stubCatalogAPI) Dealers(context.Context, string) ([]catalog.Dealer, error) {
	return []catalog.Dealer{{ID: "d-1", Name: "Downtown Motors", IsActive: true}}, nil
}

func newTestApplication(t *testing.T, tdAPI testdrive.API) *application {
	t.Helper()

	logger := zap.NewNop().Sugar()

	fallback, err := identity.NewFallbackDirectory(identity.DefaultFallbackSeeds())
	require.NoError(t, err)

	cfg := config{
		addr:       ":0",
		env:        "test",
		signinPath: "/signin",
		auth: authConfig{
			token: tokenConfig{
				secret:          "test-secret",
				refreshSecret:   "test-refresh-secret",
				accessTokenExp:  time.Hour,
				refreshTokenExp: time.Hour * 24,
				iss:             "DealerHub",
			},
		},
	}

	codes, err := testdrive.NewCodeMinter("test")
	require.NoError(t, err)

	return &application{
		config:     cfg,
		logger:     logger,
		identity:   identity.NewService(stubAuthority{}, identity.NewMemoryStore(), fallback, logger),
		testDrives: testdrive.NewService(tdAPI, codes, logger),
		restock:    restock.NewService(stubRestockAPI{}, logger),
		catalog:    catalog.NewService(stubCatalogAPI{}, nil, time.Minute, logger),
		authenticator: auth.NewJWTAuthenticator(
			cfg.auth.token.secret, cfg.auth.token.refreshSecret,
			cfg.auth.token.iss, cfg.auth.token.iss,
			cfg.auth.token.accessTokenExp, cfg.auth.token.refreshTokenExp,
		),
	}
}

// signIn logs in through the real handler and returns the cookies.
func signIn(t *testing.T, mux http.Handler, username, password string) []*http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestAnonymousBrowserRedirectsToSignIn(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/test-drives/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "/signin?")
	assert.Contains(t, loc, "from=%2Fv1%2Ftest-drives%2F")
}

func TestAnonymousJSONClientGets401(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/test-drives/", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffBlockedFromApproval(t *testing.T) {
	tdAPI := &stubTestDriveAPI{bookings: map[string]*testdrive.Booking{
		"td-1": {ID: "td-1", Status: testdrive.StatusPending},
	}}
	app := newTestApplication(t, tdAPI)
	mux := app.mount()

	cookies := signIn(t, mux, "dealerstaff", "staff123")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/test-drives/td-1/approve", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission")
	assert.Equal(t, testdrive.StatusPending, tdAPI.bookings["td-1"].Status)
}

func TestStaffBrowserRedirectCarriesError(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{bookings: map[string]*testdrive.Booking{
		"td-1": {ID: "td-1", Status: testdrive.StatusPending},
	}})
	mux := app.mount()

	cookies := signIn(t, mux, "dealerstaff", "staff123")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/test-drives/td-1/approve", nil), cookies)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "error=")
	assert.Contains(t, loc, "from=")
}

func TestManagerApprovesThroughAliasClass(t *testing.T) {
	tdAPI := &stubTestDriveAPI{bookings: map[string]*testdrive.Booking{
		"td-1": {ID: "td-1", Status: testdrive.StatusPending},
	}}
	app := newTestApplication(t, tdAPI)
	mux := app.mount()

	// The route requires DealerAdmin; DealerManager is admitted as its
	// alias.
	cookies := signIn(t, mux, "dealermanager", "admin123")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/test-drives/td-1/approve", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testdrive.StatusApproved, tdAPI.bookings["td-1"].Status)
}

func TestSessionEndpointReflectsPrincipal(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	cookies := signIn(t, mux, "dealermanager", "admin123")

	req := withCookies(httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "dealermanager", envelope.Data.Username)
	assert.True(t, envelope.Data.IsAdmin)
	assert.True(t, envelope.Data.IsDealer)
	assert.False(t, envelope.Data.IsCompany)
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	cookies := signIn(t, mux, "dev", "dev123")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil), cookies)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The old access token no longer resolves a session.
	req = withCookies(httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
