package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogRefreshRequiresAdmin(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	cookies := signIn(t, mux, "dealerstaff", "staff123")
	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/catalog/refresh", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCatalogRefreshDropsCache(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	cookies := signIn(t, mux, "dealeradmin", "admin123")
	req := withCookies(httptest.NewRequest(http.MethodPost, "/v1/catalog/refresh", nil), cookies)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCatalogListingsVisibleToStaff(t *testing.T) {
	app := newTestApplication(t, &stubTestDriveAPI{})
	mux := app.mount()

	cookies := signIn(t, mux, "companystaff", "staff123")
	req := withCookies(httptest.NewRequest(http.MethodGet, "/v1/catalog/vehicles", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Toyota")
}
