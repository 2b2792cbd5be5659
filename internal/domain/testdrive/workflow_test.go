package testdrive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAPI struct {
	bookings map[string]*Booking

	approveCalls int
	rejectCalls  int
	updateCalls  int
	deleteCalls  int
	createCalls  int
	statusCalls  int
}

func newMockAPI(bookings ...*Booking) *mockAPI {
	m := &mockAPI{bookings: make(map[string]*Booking)}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockAPI) List(_ context.Context, _ string, _ Filters) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockAPI) Get(_ context.Context, _ string, id string) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *b
	return &cp, nil
}

func (m *mockAPI) Create(_ context.Context, _ string, in *CreateInput) (*Booking, error) {
	m.createCalls++
	b := &Booking{
		ID:            "td-new",
		TestDate:      in.TestDate,
		CustomerName:  in.CustomerName,
		DealerID:      in.DealerID,
		VehicleID:     in.VehicleID,
		Status:        StatusPending,
		CreatedBy:     in.CreatedBy,
		CreatedByName: in.CreatedByName,
	}
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockAPI) Update(_ context.Context, _ string, id string, in *UpdateInput) (*Booking, error) {
	m.updateCalls++
	b := m.bookings[id]
	if in.CustomerName != nil {
		b.CustomerName = *in.CustomerName
	}
	if in.TestDate != nil {
		b.TestDate = *in.TestDate
	}
	cp := *b
	return &cp, nil
}

func (m *mockAPI) UpdateStatus(_ context.Context, _ string, id string, status Status) error {
	m.statusCalls++
	m.bookings[id].Status = status
	return nil
}

func (m *mockAPI) Delete(_ context.Context, _ string, id string) error {
	m.deleteCalls++
	delete(m.bookings, id)
	return nil
}

func (m *mockAPI) Approve(_ context.Context, _ string, id, approvedBy string) error {
	m.approveCalls++
	b := m.bookings[id]
	b.Status = StatusApproved
	b.ApprovedBy = approvedBy
	return nil
}

func (m *mockAPI) Reject(_ context.Context, _ string, id, rejectedBy, reason string) error {
	m.rejectCalls++
	b := m.bookings[id]
	b.Status = StatusRejected
	b.RejectionReason = reason
	return nil
}

func newTestService(t *testing.T, api API) *Service {
	t.Helper()
	codes, err := NewCodeMinter("test-salt")
	require.NoError(t, err)
	return NewService(api, codes, zap.NewNop().Sugar())
}

var (
	manager = Actor{ID: "u-mgr", Name: "Dana Manager", Token: "t", Roles: []string{"DealerManager"}}
	admin   = Actor{ID: "u-adm", Name: "Ada Admin", Token: "t", Roles: []string{"DealerAdmin"}}
	staff   = Actor{ID: "u-stf", Name: "Sam Staff", Token: "t", Roles: []string{"DealerStaff"}}
)

const (
	dealerID  = "0f8fad5b-d9cb-469f-a165-70867728950e"
	vehicleID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

func pendingBooking(id string) *Booking {
	return &Booking{
		ID: id, Status: StatusPending,
		DealerID: dealerID, VehicleID: vehicleID,
		CustomerName: "Jordan Buyer", TestDate: "2026-09-12",
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusChangeRequested, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusPending, StatusCancelled, true},
		{StatusRejected, StatusApproved, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusChangeRequested, StatusApproved, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestApproveRequiresDealerAdminEquivalent(t *testing.T) {
	api := newMockAPI(pendingBooking("td-1"))
	svc := newTestService(t, api)

	_, err := svc.Approve(context.Background(), staff, "td-1")
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, 0, api.approveCalls)

	// Manager approves through the alias class.
	got, err := svc.Approve(context.Background(), manager, "td-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	assert.Equal(t, "u-mgr", got.ApprovedBy)
}

func TestApproveOnlyFromPending(t *testing.T) {
	api := newMockAPI(&Booking{ID: "td-1", Status: StatusCompleted})
	svc := newTestService(t, api)

	_, err := svc.Approve(context.Background(), admin, "td-1")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusCompleted, stateErr.Status)
	assert.Equal(t, 0, api.approveCalls)
}

func TestRejectRequiresReasonBeforeAnyRemoteCall(t *testing.T) {
	api := newMockAPI(pendingBooking("td-1"))
	svc := newTestService(t, api)

	_, err := svc.Reject(context.Background(), admin, "td-1", "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.Equal(t, 0, api.rejectCalls)

	got, err := svc.Reject(context.Background(), admin, "td-1", "vehicle unavailable")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
	assert.Equal(t, "vehicle unavailable", got.RejectionReason)
}

func TestCreateForcesPendingAndMintsCode(t *testing.T) {
	api := newMockAPI()
	svc := newTestService(t, api)

	got, err := svc.Create(context.Background(), staff, &CreateInput{
		TestDate:     "2026-09-12",
		CustomerName: "Jordan Buyer",
		DealerID:     dealerID,
		VehicleID:    vehicleID,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "u-stf", got.CreatedBy)
	assert.NotEmpty(t, got.ConfirmationCode)
}

func TestCreateValidatesBeforeRemoteCall(t *testing.T) {
	api := newMockAPI()
	svc := newTestService(t, api)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"empty customer", CreateInput{TestDate: "2026-09-12", DealerID: dealerID, VehicleID: vehicleID}, "customerName"},
		{"bad date", CreateInput{TestDate: "next tuesday", CustomerName: "J", DealerID: dealerID, VehicleID: vehicleID}, "testDate"},
		{"bad dealer id", CreateInput{TestDate: "2026-09-12", CustomerName: "J", DealerID: "dealer-1", VehicleID: vehicleID}, "dealerId"},
		{"bad vehicle id", CreateInput{TestDate: "2026-09-12", CustomerName: "J", DealerID: dealerID, VehicleID: "car"}, "vehicleId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			_, err := svc.Create(context.Background(), staff, &in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
	assert.Equal(t, 0, api.createCalls)
}

func TestStaffEditsOwnPendingBookingOnly(t *testing.T) {
	own := pendingBooking("td-own")
	own.CreatedBy = staff.ID
	approvedOwn := &Booking{ID: "td-done", Status: StatusApproved, CreatedBy: staff.ID}
	other := pendingBooking("td-other")
	other.CreatedBy = "someone-else"

	api := newMockAPI(own, approvedOwn, other)
	svc := newTestService(t, api)
	name := "Edited Name"

	_, err := svc.Update(context.Background(), staff, "td-own", &UpdateInput{CustomerName: &name})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), staff, "td-done", &UpdateInput{CustomerName: &name})
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = svc.Update(context.Background(), staff, "td-other", &UpdateInput{CustomerName: &name})
	assert.ErrorIs(t, err, ErrNotPermitted)

	// Admin-equivalents edit regardless of creator or status.
	_, err = svc.Update(context.Background(), manager, "td-done", &UpdateInput{CustomerName: &name})
	require.NoError(t, err)
}

func TestCompleteOnlyFromApproved(t *testing.T) {
	api := newMockAPI(
		&Booking{ID: "td-ok", Status: StatusApproved},
		pendingBooking("td-pending"),
	)
	svc := newTestService(t, api)

	got, err := svc.Complete(context.Background(), admin, "td-ok")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	_, err = svc.Complete(context.Background(), admin, "td-pending")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCancelAnyNonTerminal(t *testing.T) {
	api := newMockAPI(
		pendingBooking("td-p"),
		&Booking{ID: "td-a", Status: StatusApproved},
		&Booking{ID: "td-c", Status: StatusCompleted},
	)
	svc := newTestService(t, api)

	for _, id := range []string{"td-p", "td-a"} {
		got, err := svc.Cancel(context.Background(), admin, id)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
	}

	_, err := svc.Cancel(context.Background(), admin, "td-c")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestDeleteGatedByEditPredicate(t *testing.T) {
	b := pendingBooking("td-1")
	b.CreatedBy = "someone-else"
	api := newMockAPI(b)
	svc := newTestService(t, api)

	err := svc.Delete(context.Background(), staff, "td-1")
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, 0, api.deleteCalls)

	require.NoError(t, svc.Delete(context.Background(), admin, "td-1"))
	assert.Equal(t, 1, api.deleteCalls)
}

func TestListNeverReturnsNil(t *testing.T) {
	svc := newTestService(t, newMockAPI())

	got, err := svc.List(context.Background(), staff, Filters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCodeMinterUniqueCodes(t *testing.T) {
	m, err := NewCodeMinter("salt")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := m.Mint()
		require.GreaterOrEqual(t, len(code), 8)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
