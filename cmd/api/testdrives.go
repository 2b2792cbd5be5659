package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealerhub/internal/domain/testdrive"
	"dealerhub/internal/identity"
	"dealerhub/internal/mailer"
)

func testDriveActor(p *identity.Principal) testdrive.Actor {
	return testdrive.Actor{ID: p.ID, Name: p.Name, Token: p.Token, Roles: p.Roles}
}

// BookingResponse is a booking plus the action flags the frontend uses
// to decide which buttons to render for the signed-in principal.
type BookingResponse struct {
	testdrive.Booking
	CanApprove bool `json:"canApprove"`
	CanReject  bool `json:"canReject"`
	CanEdit    bool `json:"canEdit"`
	CanDelete  bool `json:"canDelete"`
}

func (app *application) bookingResponseFor(p *identity.Principal, b *testdrive.Booking) BookingResponse {
	actor := testDriveActor(p)
	decidable := testdrive.CanDecide(p.Roles) && testdrive.CanTransition(b.Status, testdrive.StatusApproved)
	editable := testdrive.CanEdit(actor, b)
	return BookingResponse{
		Booking:    *b,
		CanApprove: decidable,
		CanReject:  decidable,
		CanEdit:    editable,
		CanDelete:  editable,
	}
}

type CreateTestDrivePayload struct {
	TestDate        string `json:"testDate" validate:"required"`
	CustomerName    string `json:"customerName" validate:"required,max=150"`
	CustomerContact string `json:"customerContact" validate:"required,max=150"`
	Notes           string `json:"notes" validate:"max=1000"`
	DealerID        string `json:"dealerId" validate:"required,entityid"`
	VehicleID       string `json:"vehicleId" validate:"required,entityid"`
}

type UpdateTestDrivePayload struct {
	TestDate        *string `json:"testDate"`
	CustomerName    *string `json:"customerName" validate:"omitempty,max=150"`
	CustomerContact *string `json:"customerContact" validate:"omitempty,max=150"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
	DealerID        *string `json:"dealerId" validate:"omitempty,entityid"`
	VehicleID       *string `json:"vehicleId" validate:"omitempty,entityid"`
}

type RejectTestDrivePayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// listTestDrivesHandler godoc
//
//	@Summary		Lists test drive bookings
//	@Description	Bookings visible to the signed-in principal, with per-record action flags
//	@Tags			test-drives
//	@Produce		json
//	@Param			dealerId		query		string	false	"Filter by dealer"
//	@Param			vehicleId		query		string	false	"Filter by vehicle"
//	@Param			customerName	query		string	false	"Filter by customer name"
//	@Param			status			query		string	false	"Filter by status"
//	@Param			fromDate		query		string	false	"Earliest test date (RFC 3339)"
//	@Param			toDate			query		string	false	"Latest test date (RFC 3339)"
//	@Success		200				{object}	[]BookingResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/test-drives [get]
func (app *application) listTestDrivesHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	filters, err := testDriveFiltersFromQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookings, err := app.testDrives.List(r.Context(), testDriveActor(principal), filters)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, app.bookingResponseFor(principal, &bookings[i]))
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getTestDriveHandler godoc
//
//	@Summary	Fetches one booking
//	@Tags		test-drives
//	@Produce	json
//	@Param		bookingID	path		string	true	"Booking ID"
//	@Success	200			{object}	BookingResponse
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/test-drives/{bookingID} [get]
func (app *application) getTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	booking, err := app.testDrives.Get(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTestDriveHandler godoc
//
//	@Summary		Books a test drive
//	@Description	New bookings always start Pending; the response carries a confirmation code for the customer
//	@Tags			test-drives
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTestDrivePayload	true	"Booking details"
//	@Success		201		{object}	BookingResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/test-drives [post]
func (app *application) createTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload CreateTestDrivePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.testDrives.Create(r.Context(), testDriveActor(principal), &testdrive.CreateInput{
		TestDate:        payload.TestDate,
		CustomerName:    payload.CustomerName,
		CustomerContact: payload.CustomerContact,
		Notes:           payload.Notes,
		DealerID:        payload.DealerID,
		VehicleID:       payload.VehicleID,
	})
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateTestDriveHandler godoc
//
//	@Summary	Edits a booking's details
//	@Tags		test-drives
//	@Accept		json
//	@Produce	json
//	@Param		bookingID	path		string					true	"Booking ID"
//	@Param		payload		body		UpdateTestDrivePayload	true	"Fields to change"
//	@Success	200			{object}	BookingResponse
//	@Failure	403			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/test-drives/{bookingID} [patch]
func (app *application) updateTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload UpdateTestDrivePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.testDrives.Update(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"), &testdrive.UpdateInput{
		TestDate:        payload.TestDate,
		CustomerName:    payload.CustomerName,
		CustomerContact: payload.CustomerContact,
		Notes:           payload.Notes,
		DealerID:        payload.DealerID,
		VehicleID:       payload.VehicleID,
	})
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteTestDriveHandler godoc
//
//	@Summary	Deletes a booking
//	@Tags		test-drives
//	@Param		bookingID	path	string	true	"Booking ID"
//	@Success	204			"Deleted"
//	@Failure	403			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/test-drives/{bookingID} [delete]
func (app *application) deleteTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	if err := app.testDrives.Delete(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID")); err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// approveTestDriveHandler godoc
//
//	@Summary		Approves a pending booking
//	@Description	Dealer admin or manager only; only Pending bookings can be approved
//	@Tags			test-drives
//	@Produce		json
//	@Param			bookingID	path		string	true	"Booking ID"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	ErrorBadRequestResponse
//	@Failure		409			{object}	ErrorBadRequestResponse	"Booking is not pending"
//	@Security		ApiKeyAuth
//	@Router			/test-drives/{bookingID}/approve [post]
func (app *application) approveTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	booking, err := app.testDrives.Approve(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	app.notifyTestDriveDecision(booking, "approved")

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// rejectTestDriveHandler godoc
//
//	@Summary		Rejects a pending booking
//	@Description	Dealer admin or manager only; the rejection reason is mandatory
//	@Tags			test-drives
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		string					true	"Booking ID"
//	@Param			payload		body		RejectTestDrivePayload	true	"Rejection reason"
//	@Success		200			{object}	BookingResponse
//	@Failure		400			{object}	ErrorBadRequestResponse	"Missing reason"
//	@Failure		403			{object}	ErrorBadRequestResponse
//	@Failure		409			{object}	ErrorBadRequestResponse	"Booking is not pending"
//	@Security		ApiKeyAuth
//	@Router			/test-drives/{bookingID}/reject [post]
func (app *application) rejectTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	var payload RejectTestDrivePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.testDrives.Reject(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"), payload.Reason)
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	app.notifyTestDriveDecision(booking, "rejected")

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// completeTestDriveHandler godoc
//
//	@Summary	Marks an approved booking as completed
//	@Tags		test-drives
//	@Produce	json
//	@Param		bookingID	path		string	true	"Booking ID"
//	@Success	200			{object}	BookingResponse
//	@Failure	409			{object}	ErrorBadRequestResponse	"Booking is not approved"
//	@Security	ApiKeyAuth
//	@Router		/test-drives/{bookingID}/complete [post]
func (app *application) completeTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	booking, err := app.testDrives.Complete(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelTestDriveHandler godoc
//
//	@Summary	Cancels a booking
//	@Tags		test-drives
//	@Produce	json
//	@Param		bookingID	path		string	true	"Booking ID"
//	@Success	200			{object}	BookingResponse
//	@Failure	409			{object}	ErrorBadRequestResponse	"Booking already closed"
//	@Security	ApiKeyAuth
//	@Router		/test-drives/{bookingID}/cancel [post]
func (app *application) cancelTestDriveHandler(w http.ResponseWriter, r *http.Request) {
	principal := getPrincipalFromContext(r)

	booking, err := app.testDrives.Cancel(r.Context(), testDriveActor(principal), chi.URLParam(r, "bookingID"))
	if err != nil {
		app.handleDomainError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponseFor(principal, booking)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func testDriveFiltersFromQuery(r *http.Request) (testdrive.Filters, error) {
	q := r.URL.Query()
	f := testdrive.Filters{
		DealerID:     q.Get("dealerId"),
		VehicleID:    q.Get("vehicleId"),
		CustomerName: q.Get("customerName"),
		Status:       testdrive.Status(q.Get("status")),
	}

	if raw := q.Get("fromDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.FromDate = t
	}
	if raw := q.Get("toDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.ToDate = t
	}
	return f, nil
}

// notifyTestDriveDecision emails the customer about a decision when the
// contact looks like an email address. Best effort in the background; a
// failed send only logs.
func (app *application) notifyTestDriveDecision(booking *testdrive.Booking, decision string) {
	if app.mailer == nil || !strings.Contains(booking.CustomerContact, "@") {
		return
	}

	go func() {
		vars := struct {
			CustomerName     string
			TestDate         string
			Decision         string
			RejectionReason  string
			ConfirmationCode string
		}{
			CustomerName:     booking.CustomerName,
			TestDate:         booking.TestDate,
			Decision:         decision,
			RejectionReason:  booking.RejectionReason,
			ConfirmationCode: booking.ConfirmationCode,
		}

		if _, err := app.mailer.Send(mailer.TestDriveDecisionTemplate, booking.CustomerName, booking.CustomerContact, vars); err != nil {
			app.logger.Errorw("decision email failed", "bookingId", booking.ID, "error", err)
		}
	}()
}
