package main

import (
	"net/http"
)

// listVehiclesHandler godoc
//
//	@Summary		Lists available vehicles
//	@Description	Reference data for booking and restock forms; vehicles marked unavailable are hidden
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	[]catalog.Vehicle
//	@Failure		503	{object}	ErrorInternalServerResponse	"Dealer-management server unreachable"
//	@Security		ApiKeyAuth
//	@Router			/catalog/vehicles [get]
func (app *application) listVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	vehicles, err := app.catalog.Vehicles(r.Context(), principal.Token)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, vehicles); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listDealersHandler godoc
//
//	@Summary		Lists active dealers
//	@Description	Reference data for dealer pickers and filters; inactive dealers are hidden
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	[]catalog.Dealer
//	@Failure		503	{object}	ErrorInternalServerResponse	"Dealer-management server unreachable"
//	@Security		ApiKeyAuth
//	@Router			/catalog/dealers [get]
func (app *application) listDealersHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	dealers, err := app.catalog.Dealers(r.Context(), principal.Token)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, dealers); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshCatalogHandler godoc
//
//	@Summary		Drops the cached catalog
//	@Description	Admins only; the next vehicle or dealer listing refetches from the dealer-management server
//	@Tags			catalog
//	@Success		204	"Cache dropped"
//	@Failure		403	{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/catalog/refresh [post]
func (app *application) refreshCatalogHandler(w http.ResponseWriter, r *http.Request) {
	app.catalog.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
