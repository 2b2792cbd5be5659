package testdrive

import (
	"context"
	"time"
)

// Status of a test-drive booking.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	// StatusChangeRequested exists in the backend vocabulary but no
	// component currently drives a transition into or out of it. Kept for
	// forward compatibility.
	StatusChangeRequested Status = "ChangeRequested"
	StatusCompleted       Status = "Completed"
	StatusCancelled       Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected,
		StatusChangeRequested, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions in the normal flow.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking is a scheduled customer test drive. Field names follow the
// dealer-management backend's wire format.
type Booking struct {
	ID              string  `json:"id"`
	TestDate        string  `json:"testDate"` // ISO 8601
	CustomerName    string  `json:"customerName"`
	CustomerContact string  `json:"customerContact"`
	Notes           string  `json:"notes,omitempty"`
	DealerID        string  `json:"dealerId"`
	VehicleID       string  `json:"vehicleId"`
	Status          Status  `json:"status"`
	CreatedBy       string  `json:"createdBy,omitempty"`
	CreatedByName   string  `json:"createdByName,omitempty"`
	ApprovedBy      string  `json:"approvedBy,omitempty"`
	ApprovedByName  string  `json:"approvedByName,omitempty"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
	CreatedAt       *string `json:"createdAt,omitempty"`
	ApprovedAt      *string `json:"approvedAt,omitempty"`
	RejectedAt      *string `json:"rejectedAt,omitempty"`

	// ConfirmationCode is minted by the portal on creation for the
	// customer's records; the backend does not store it.
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}

// CreateInput carries the fields a caller may set when booking a test
// drive. Status is deliberately absent: new bookings always start Pending
// no matter what the caller sends.
type CreateInput struct {
	TestDate        string
	CustomerName    string
	CustomerContact string
	Notes           string
	DealerID        string
	VehicleID       string
	CreatedBy       string
	CreatedByName   string
}

// UpdateInput carries the editable fields. Nil means leave unchanged.
type UpdateInput struct {
	TestDate        *string
	CustomerName    *string
	CustomerContact *string
	Notes           *string
	DealerID        *string
	VehicleID       *string
}

// Filters narrows a booking list query.
type Filters struct {
	DealerID     string
	VehicleID    string
	CustomerName string
	FromDate     time.Time
	ToDate       time.Time
	Status       Status
}

// API is the slice of the dealer-management backend this workflow talks
// to. Every call carries the acting principal's bearer token.
type API interface {
	List(ctx context.Context, token string, f Filters) ([]Booking, error)
	Get(ctx context.Context, token, id string) (*Booking, error)
	Create(ctx context.Context, token string, in *CreateInput) (*Booking, error)
	Update(ctx context.Context, token, id string, in *UpdateInput) (*Booking, error)
	UpdateStatus(ctx context.Context, token, id string, status Status) error
	Delete(ctx context.Context, token, id string) error
	Approve(ctx context.Context, token, id, approvedBy string) error
	Reject(ctx context.Context, token, id, rejectedBy, reason string) error
}
