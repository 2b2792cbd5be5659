package authority

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"dealerhub/internal/domain/testdrive"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, zap.NewNop().Sugar()), srv
}

func TestAuthenticateSuccess(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"message": "ok",
			"data": {
				"userId": "u-42",
				"roles": ["DealerAdmin"],
				"token": "tok",
				"refreshToken": "refresh"
			}
		}`))
	})

	res, err := api.Auth.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-42", res.UserID)
	assert.Equal(t, []string{"DealerAdmin"}, res.Roles)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "refresh", res.RefreshToken)
}

func TestAuthenticateWithoutEnvelope(t *testing.T) {
	// Some backend builds skip the ApiResponse wrapper; the client
	// accepts both shapes.
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userId": "u-1", "roles": [], "token": "t", "refreshToken": "r"}`))
	})

	res, err := api.Auth.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.UserID)
}

func TestRejectionMessageFromEnvelope(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "message": "Invalid username or password"}`))
	})

	_, err := api.Auth.Authenticate(context.Background(), "admin", "wrong")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "Invalid username or password", statusErr.Message)
}

func TestRejectionMessageFromPlainBody(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`account locked`))
	})

	_, err := api.Auth.Authenticate(context.Background(), "admin", "wrong")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "account locked", statusErr.Message)
}

func TestRejectionMessageFallsBackToGeneric(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html><body>Bad Gateway</body></html>`))
	})

	_, err := api.Auth.Authenticate(context.Background(), "admin", "pw")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, genericRejectionMessage, statusErr.Message)
}

func TestConnectivityErrorWhenServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	api := New(srv.URL, time.Second, zap.NewNop().Sugar())
	srv.Close()

	_, err := api.Auth.Authenticate(context.Background(), "admin", "pw")
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.NotNil(t, errors.Unwrap(connErr))
}

func TestBearerTokenForwarded(t *testing.T) {
	var gotAuth string
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success": true, "data": []}`))
	})

	_, err := api.Catalog.Vehicles(context.Background(), "upstream-token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer upstream-token", gotAuth)
}

func TestListFiltersBecomeQueryParams(t *testing.T) {
	var gotQuery string
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success": true, "data": []}`))
	})

	f := testdrive.Filters{DealerID: "dealer-1", Status: testdrive.StatusPending}
	_, err := api.TestDrives.List(context.Background(), "t", f)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "dealerId=dealer-1")
	assert.Contains(t, gotQuery, "status=Pending")
}
