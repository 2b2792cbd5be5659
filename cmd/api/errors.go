package main

import (
	"errors"
	"net/http"

	"dealerhub/internal/authority"
	"dealerhub/internal/domain/restock"
	"dealerhub/internal/domain/testdrive"
	"dealerhub/internal/identity"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("state conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, err.Error())
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, message)
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("dealer-management server unreachable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusServiceUnavailable, "dealer-management server is unreachable, try again shortly")
}

// handleDomainError translates workflow and remote errors into the HTTP
// vocabulary: permission failures are 403, state conflicts 409, bad
// input 400, connectivity problems 503, and remote rejections keep the
// status the backend chose.
func (app *application) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tdState   *testdrive.StateError
		rsState   *restock.StateError
		tdInvalid *testdrive.ValidationError
		rsInvalid *restock.ValidationError
		statusErr *authority.StatusError
		connErr   *authority.ConnectivityError
	)

	switch {
	case errors.Is(err, testdrive.ErrNotPermitted), errors.Is(err, restock.ErrNotPermitted):
		app.forbiddenResponse(w, r, "You do not have permission to perform this action")
	case errors.Is(err, testdrive.ErrReasonRequired), errors.Is(err, restock.ErrReasonRequired):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, identity.ErrSessionExpired):
		app.unauthorizedErrorResponse(w, r, err)
	case errors.As(err, &tdState), errors.As(err, &rsState):
		app.conflictResponse(w, r, err)
	case errors.As(err, &tdInvalid), errors.As(err, &rsInvalid):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &connErr):
		app.serviceUnavailableResponse(w, r, err)
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusNotFound {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Warnw("backend rejection", "method", r.Method, "path", r.URL.Path, "status", statusErr.StatusCode, "message", statusErr.Message)
		writeJSONError(w, statusErr.StatusCode, statusErr.Message)
	default:
		app.internalServerError(w, r, err)
	}
}
