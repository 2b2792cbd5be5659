package main

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"dealerhub/internal/identity"
	"dealerhub/internal/rbac"
)

// ErrorBadRequestResponse represents the standard error format for bad request API responses.
//
//	@name			ErrorBadRequestResponse
//	@description	Standard error response format returned by all bad request API endpoints
type ErrorBadRequestResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"It show error from err.Error()"`
	Status  int    `json:"status" example:"400"`
}

// ErrorInternalServerResponse represents the standard error format for internal server API responses.
//
//	@name			ErrorInternalServerResponse
//	@description	Standard error response format returned by all internal server error API endpoints
type ErrorInternalServerResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"the server encountered a problem"`
	Status  int    `json:"status" example:"500"`
}

type SignInPayload struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// SessionResponse is the principal as the frontend consumes it: the
// role list plus precomputed capability flags, never the upstream
// tokens.
type SessionResponse struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
	IsAdmin   bool     `json:"isAdmin"`
	IsCompany bool     `json:"isCompany"`
	IsDealer  bool     `json:"isDealer"`
}

func sessionResponseFor(p *identity.Principal) SessionResponse {
	return SessionResponse{
		ID:        p.ID,
		Username:  p.Username,
		Name:      p.Name,
		Email:     p.Email,
		Roles:     p.Roles,
		IsAdmin:   rbac.IsAdmin(p.Roles),
		IsCompany: rbac.HasAnyRole(p.Roles, []rbac.Role{rbac.CompanyAdmin, rbac.CompanyStaff}),
		IsDealer:  rbac.HasAnyRole(p.Roles, []rbac.Role{rbac.DealerAdmin, rbac.DealerStaff}),
	}
}

// setAuthCookies sets access + refresh tokens as HttpOnly cookies.
// Web browsers store/send these automatically; JS cannot read them (HttpOnly).
func (app *application) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.accessTokenExp.Seconds()),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/v1/auth",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.refreshTokenExp.Seconds()),
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	expire := func(name, path string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			HttpOnly: true,
			Secure:   app.config.env == "production",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
	expire("access_token", "/")
	expire("refresh_token", "/v1/auth")
}

// signinHandler godoc
//
//	@Summary		Signs a user in
//	@Description	Resolves credentials against the dealer-management server (or the local fallback directory), establishes the portal session, and sets HttpOnly token cookies
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignInPayload				true	"User credentials"
//	@Success		200		{object}	SessionResponse				"Signed in"
//	@Failure		400		{object}	ErrorBadRequestResponse		"Bad request"
//	@Failure		401		{object}	ErrorBadRequestResponse		"Invalid credentials"
//	@Failure		500		{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Router			/auth/login [post]
func (app *application) signinHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignInPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := uuid.New().String()

	principal, err := app.identity.Login(r.Context(), sessionID, payload.Username, payload.Password)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(sessionID, principal.Roles)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	if err := app.jsonResponse(w, http.StatusOK, sessionResponseFor(principal)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Signs the current user out
//	@Description	Clears the portal session and cookies; tells the dealer-management server to drop the refresh token on a best-effort basis
//	@Tags			auth
//	@Produce		json
//	@Success		204	"Signed out"
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r)
	if sessionID != "" {
		if err := app.identity.LogoutWithAuthority(r.Context(), sessionID); err != nil {
			app.logger.Warnw("session clear failed", "error", err)
		}
	}

	app.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// refreshTokenHandler godoc
//
//	@Summary		Refreshes the portal session
//	@Description	Rotates the upstream token pair; a failed rotation ends the session and the caller must sign in again
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse				"Session refreshed"
//	@Failure		401	{object}	ErrorBadRequestResponse		"Session expired"
//	@Failure		500	{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Router			/auth/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionIDFromRefreshCookie(r)
	if sessionID == "" {
		sessionID = getSessionIDFromContext(r)
	}
	if sessionID == "" {
		app.clearAuthCookies(w)
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("no session to refresh"))
		return
	}

	principal, err := app.identity.Refresh(r.Context(), sessionID)
	if err != nil {
		app.clearAuthCookies(w)
		app.handleDomainError(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(sessionID, principal.Roles)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	if err := app.jsonResponse(w, http.StatusOK, sessionResponseFor(principal)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sessionHandler godoc
//
//	@Summary		Returns the current session
//	@Description	The signed-in principal with role flags, or 401 when nobody is signed in
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse			"Current principal"
//	@Failure		401	{object}	ErrorBadRequestResponse	"Not signed in"
//	@Router			/auth/session [get]
func (app *application) sessionHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)
	if principal == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("not signed in"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sessionResponseFor(principal)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) sessionIDFromRefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		return ""
	}
	jwtToken, err := app.authenticator.ValidateRefreshToken(cookie.Value)
	if err != nil {
		return ""
	}
	sub, err := jwtToken.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
