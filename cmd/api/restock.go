package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealerhub/internal/domain/restock"
	"dealerhub/internal/identity"
	"dealerhub/internal/mailer"
)

func restockActor(p *identity.Principal) restock.Actor {
	return restock.Actor{ID: p.ID, Name: p.Name, Token: p.Token, Roles: p.Roles}
}

// RestockResponse is a restock request plus the action flags the
// frontend uses to decide which decision buttons to render.
type RestockResponse struct {
	restock.Request
	AwaitingCompany   bool `json:"awaitingCompany"`
	CanDealerApprove  bool `json:"canDealerApprove"`
	CanDealerReject   bool `json:"canDealerReject"`
	CanCompanyApprove bool `json:"canCompanyApprove"`
	CanCompanyReject  bool `json:"canCompanyReject"`
}

func restockResponseFor(p *identity.Principal, req *restock.Request) RestockResponse {
	dealerTurn := !req.Status.Terminal() && !req.AwaitingCompany() && req.Status == restock.StatusPending
	companyTurn := !req.Status.Terminal() && req.AwaitingCompany()

	dealerCan := restock.CanDecideDealer(p.Roles) && dealerTurn
	companyCan := restock.CanDecideCompany(p.Roles) && companyTurn

	return RestockResponse{
		Request:           *req,
		AwaitingCompany:   req.AwaitingCompany(),
		CanDealerApprove:  dealerCan,
		CanDealerReject:   dealerCan,
		CanCompanyApprove: companyCan,
		CanCompanyReject:  companyCan,
	}
}

type CreateRestockPayload struct {
	VehicleID   string `json:"vehicleId" validate:"required,entityid"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=1000"`
}

type RejectRestockPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// listRestockHandler godoc
//
//	@Summary	Lists restock requests
//	@Tags		restock-requests
//	@Produce	json
//	@Param		status		query		string	false	"Filter by status"
//	@Param		vehicleId	query		string	false	"Filter by vehicle"
//	@Param		dateFrom	query		string	false	"Earliest request date (RFC 3339)"
//	@Param		dateTo		query		string	false	"Latest request date (RFC 3339)"
//	@Success	200			{object}	[]RestockResponse
//	@Failure	500			{object}	ErrorInternalServerResponse
//	@Security	ApiKeyAuth
//	@Router		/restock-requests [get]
func (app *application) listRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	filters, err := restockFiltersFromQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	requests, err := app.restock.List(r.Context(), restockActor(principal), filters)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	out := make([]RestockResponse, 0, len(requests))
	for i := range requests {
		out = append(out, restockResponseFor(principal, &requests[i]))
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRestockHandler godoc
//
//	@Summary	Fetches one restock request
//	@Tags		restock-requests
//	@Produce	json
//	@Param		requestID	path		string	true	"Request ID"
//	@Success	200			{object}	RestockResponse
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/restock-requests/{requestID} [get]
func (app *application) getRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	req, err := app.restock.Get(r.Context(), restockActor(principal), chi.URLParam(r, "requestID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createRestockHandler godoc
//
//	@Summary		Files a restock request
//	@Description	New requests always start Pending at the dealer tier
//	@Tags			restock-requests
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateRestockPayload	true	"Request details"
//	@Success		201		{object}	RestockResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/restock-requests [post]
func (app *application) createRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload CreateRestockPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.restock.Create(r.Context(), restockActor(principal), &restock.CreateInput{
		VehicleID:   payload.VehicleID,
		Quantity:    payload.Quantity,
		Description: payload.Description,
	})
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// dealerApproveRestockHandler godoc
//
//	@Summary		Approves at the dealer tier
//	@Description	Escalates the request to the company tier for the final decision
//	@Tags			restock-requests
//	@Produce		json
//	@Param			requestID	path		string	true	"Request ID"
//	@Success		200			{object}	RestockResponse
//	@Failure		403			{object}	ErrorBadRequestResponse
//	@Failure		409			{object}	ErrorBadRequestResponse	"Request is not pending at the dealer tier"
//	@Security		ApiKeyAuth
//	@Router			/restock-requests/{requestID}/dealer-approve [post]
func (app *application) dealerApproveRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	req, err := app.restock.DealerApprove(r.Context(), restockActor(principal), chi.URLParam(r, "requestID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// dealerRejectRestockHandler godoc
//
//	@Summary	Rejects at the dealer tier
//	@Tags		restock-requests
//	@Accept		json
//	@Produce	json
//	@Param		requestID	path		string					true	"Request ID"
//	@Param		payload		body		RejectRestockPayload	true	"Rejection reason"
//	@Success	200			{object}	RestockResponse
//	@Failure	400			{object}	ErrorBadRequestResponse	"Missing reason"
//	@Failure	409			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/restock-requests/{requestID}/dealer-reject [post]
func (app *application) dealerRejectRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload RejectRestockPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.restock.DealerReject(r.Context(), restockActor(principal), chi.URLParam(r, "requestID"), payload.Reason)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	app.notifyRestockDecision(req, "rejected")

	if err := app.jsonResponse(w, http.StatusOK, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// companyApproveRestockHandler godoc
//
//	@Summary		Approves at the company tier
//	@Description	Final approval; only requests the dealer tier escalated are eligible
//	@Tags			restock-requests
//	@Produce		json
//	@Param			requestID	path		string	true	"Request ID"
//	@Success		200			{object}	RestockResponse
//	@Failure		403			{object}	ErrorBadRequestResponse
//	@Failure		409			{object}	ErrorBadRequestResponse	"Request is not awaiting the company"
//	@Security		ApiKeyAuth
//	@Router			/restock-requests/{requestID}/company-approve [post]
func (app *application) companyApproveRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	req, err := app.restock.CompanyApprove(r.Context(), restockActor(principal), chi.URLParam(r, "requestID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	app.notifyRestockDecision(req, "approved")

	if err := app.jsonResponse(w, http.StatusOK, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// companyRejectRestockHandler godoc
//
//	@Summary	Rejects at the company tier
//	@Tags		restock-requests
//	@Accept		json
//	@Produce	json
//	@Param		requestID	path		string					true	"Request ID"
//	@Param		payload		body		RejectRestockPayload	true	"Rejection reason"
//	@Success	200			{object}	RestockResponse
//	@Failure	400			{object}	ErrorBadRequestResponse	"Missing reason"
//	@Failure	409			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/restock-requests/{requestID}/company-reject [post]
func (app *application) companyRejectRestockHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload RejectRestockPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.restock.CompanyReject(r.Context(), restockActor(principal), chi.URLParam(r, "requestID"), payload.Reason)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	app.notifyRestockDecision(req, "rejected")

	if err := app.jsonResponse(w, http.StatusOK, restockResponseFor(principal, req)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyRestockDecision emails the requester about a final decision
// when the createdBy field carries an email address. Escalation is not
// a final decision and sends nothing. Best effort in the background; a
// failed send only logs.
func (app *application) notifyRestockDecision(req *restock.Request, decision string) {
	if app.mailer == nil || !strings.Contains(req.CreatedBy, "@") {
		return
	}

	go func() {
		vars := struct {
			Name         string
			RequestID    string
			VehicleName  string
			Quantity     int
			Decision     string
			RejectReason string
		}{
			Name:         req.CreatedBy,
			RequestID:    req.ID,
			VehicleName:  req.VehicleName,
			Quantity:     req.Quantity,
			Decision:     decision,
			RejectReason: req.RejectReason,
		}

		if _, err := app.mailer.Send(mailer.RestockDecisionTemplate, req.CreatedBy, req.CreatedBy, vars); err != nil {
			app.logger.Errorw("decision email failed", "requestId", req.ID, "error", err)
		}
	}()
}

func restockFiltersFromQuery(r *http.Request) (restock.Filters, error) {
	q := r.URL.Query()
	f := restock.Filters{
		Status:    restock.Status(q.Get("status")),
		VehicleID: q.Get("vehicleId"),
	}

	if raw := q.Get("dateFrom"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.DateFrom = t
	}
	if raw := q.Get("dateTo"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.DateTo = t
	}
	return f, nil
}
