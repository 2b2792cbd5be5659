package testdrive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dealerhub/internal/rbac"
)

var (
	// ErrNotPermitted means the actor's roles do not allow the operation.
	ErrNotPermitted = errors.New("not permitted")
	// ErrReasonRequired means a rejection was attempted without a reason.
	// Checked before anything leaves the process.
	ErrReasonRequired = errors.New("rejection reason is required")
)

// StateError reports a transition the booking's current status does not
// allow.
type StateError struct {
	ID     string
	Status Status
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("test drive %s: cannot %s while %s", e.ID, e.Action, e.Status)
}

// ValidationError reports a bad field caught before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Actor is the principal performing a workflow operation.
type Actor struct {
	ID    string
	Name  string
	Token string
	Roles []string
}

// transitions holds every allowed status move. Cancellation from any
// non-terminal status is handled in CanTransition rather than listed.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusChangeRequested},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCreate reports whether the roles may book a test drive: any
// dealer-side role.
func CanCreate(roles []string) bool {
	return rbac.HasAnyRole(roles, []rbac.Role{rbac.DealerStaff, rbac.DealerAdmin})
}

// CanDecide reports whether the roles may approve or reject: dealer
// admins and their manager equivalents.
func CanDecide(roles []string) bool {
	return rbac.HasAnyRole(roles, []rbac.Role{rbac.DealerAdmin})
}

// CanEdit reports whether the actor may edit or delete the booking:
// admin-equivalents always, the creating staff member only while the
// booking is Pending or Rejected.
func CanEdit(actor Actor, b *Booking) bool {
	if CanDecide(actor.Roles) {
		return true
	}
	if b.CreatedBy != "" && b.CreatedBy == actor.ID {
		return b.Status == StatusPending || b.Status == StatusRejected
	}
	return false
}

// Service wraps the backend test-drive API with the portal's permission
// and state rules. Every check runs before the remote call; a rejected
// check mutates nothing.
type Service struct {
	api    API
	codes  *CodeMinter
	logger *zap.SugaredLogger
}

func NewService(api API, codes *CodeMinter, logger *zap.SugaredLogger) *Service {
	return &Service{api: api, codes: codes, logger: logger}
}

func (s *Service) List(ctx context.Context, actor Actor, f Filters) ([]Booking, error) {
	bookings, err := s.api.List(ctx, actor.Token, f)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Booking, error) {
	return s.api.Get(ctx, actor.Token, id)
}

// Create books a test drive. The booking always starts Pending no matter
// what the caller sends; creator identity is stamped from the actor.
func (s *Service) Create(ctx context.Context, actor Actor, in *CreateInput) (*Booking, error) {
	if !CanCreate(actor.Roles) {
		return nil, ErrNotPermitted
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	in.CreatedBy = actor.ID
	in.CreatedByName = actor.Name

	booking, err := s.api.Create(ctx, actor.Token, in)
	if err != nil {
		return nil, err
	}
	booking.ConfirmationCode = s.codes.Mint()
	s.logger.Infow("test drive booked",
		"id", booking.ID, "dealerId", booking.DealerID, "code", booking.ConfirmationCode)
	return booking, nil
}

// Update edits a booking's details. Status changes never travel this
// path.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in *UpdateInput) (*Booking, error) {
	booking, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(actor, booking) {
		return nil, ErrNotPermitted
	}
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	return s.api.Update(ctx, actor.Token, id, in)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	booking, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return err
	}
	if !CanEdit(actor, booking) {
		return ErrNotPermitted
	}
	return s.api.Delete(ctx, actor.Token, id)
}

// Approve moves a Pending booking to Approved and returns the refreshed
// record.
func (s *Service) Approve(ctx context.Context, actor Actor, id string) (*Booking, error) {
	if !CanDecide(actor.Roles) {
		return nil, ErrNotPermitted
	}

	booking, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(booking.Status, StatusApproved) {
		return nil, &StateError{ID: id, Status: booking.Status, Action: "approve"}
	}

	if err := s.api.Approve(ctx, actor.Token, id, actor.ID); err != nil {
		return nil, err
	}
	s.logger.Infow("test drive approved", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// Reject moves a Pending booking to Rejected. The reason is mandatory
// and checked before the booking is even fetched.
func (s *Service) Reject(ctx context.Context, actor Actor, id, reason string) (*Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if !CanDecide(actor.Roles) {
		return nil, ErrNotPermitted
	}

	booking, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(booking.Status, StatusRejected) {
		return nil, &StateError{ID: id, Status: booking.Status, Action: "reject"}
	}

	if err := s.api.Reject(ctx, actor.Token, id, actor.ID, reason); err != nil {
		return nil, err
	}
	s.logger.Infow("test drive rejected", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// Complete marks an Approved booking as done.
func (s *Service) Complete(ctx context.Context, actor Actor, id string) (*Booking, error) {
	return s.setStatus(ctx, actor, id, StatusCompleted, "complete")
}

// Cancel withdraws any non-terminal booking.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (*Booking, error) {
	return s.setStatus(ctx, actor, id, StatusCancelled, "cancel")
}

func (s *Service) setStatus(ctx context.Context, actor Actor, id string, to Status, action string) (*Booking, error) {
	booking, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if !CanDecide(actor.Roles) && !CanEdit(actor, booking) {
		return nil, ErrNotPermitted
	}
	if !CanTransition(booking.Status, to) {
		return nil, &StateError{ID: id, Status: booking.Status, Action: action}
	}

	if err := s.api.UpdateStatus(ctx, actor.Token, id, to); err != nil {
		return nil, err
	}
	return s.api.Get(ctx, actor.Token, id)
}

func validateCreate(in *CreateInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return &ValidationError{Field: "customerName", Message: "must not be empty"}
	}
	if _, err := time.Parse(time.RFC3339, in.TestDate); err != nil {
		if _, err := time.Parse("2006-01-02", in.TestDate); err != nil {
			return &ValidationError{Field: "testDate", Message: "must be an ISO 8601 date"}
		}
	}
	if err := uuid.Validate(in.DealerID); err != nil {
		return &ValidationError{Field: "dealerId", Message: "must be a valid identifier"}
	}
	if err := uuid.Validate(in.VehicleID); err != nil {
		return &ValidationError{Field: "vehicleId", Message: "must be a valid identifier"}
	}
	return nil
}

func validateUpdate(in *UpdateInput) error {
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		return &ValidationError{Field: "customerName", Message: "must not be empty"}
	}
	if in.TestDate != nil {
		if _, err := time.Parse(time.RFC3339, *in.TestDate); err != nil {
			if _, err := time.Parse("2006-01-02", *in.TestDate); err != nil {
				return &ValidationError{Field: "testDate", Message: "must be an ISO 8601 date"}
			}
		}
	}
	if in.DealerID != nil {
		if err := uuid.Validate(*in.DealerID); err != nil {
			return &ValidationError{Field: "dealerId", Message: "must be a valid identifier"}
		}
	}
	if in.VehicleID != nil {
		if err := uuid.Validate(*in.VehicleID); err != nil {
			return &ValidationError{Field: "vehicleId", Message: "must be a valid identifier"}
		}
	}
	return nil
}
