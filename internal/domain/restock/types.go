package restock

import (
	"context"
	"strings"
	"time"
)

// Status of a restock request across the two approval tiers.
type Status string

const (
	StatusPending Status = "Pending"
	// StatusEscalated means the dealer tier approved and forwarded the
	// request to the company.
	StatusEscalated       Status = "Escalated"
	StatusRejected        Status = "Rejected" // dealer-level terminal
	StatusApproved        Status = "Approved" // company-level terminal
	StatusCompanyRejected Status = "CompanyRejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusEscalated, StatusRejected, StatusApproved, StatusCompanyRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusApproved, StatusCompanyRejected:
		return true
	}
	return false
}

// AcceptanceLevel tags which approval tier last acted on a request.
type AcceptanceLevel string

const (
	LevelDealer  AcceptanceLevel = "Dealer"
	LevelCompany AcceptanceLevel = "Company"
)

// Request is a dealer's ask for additional vehicle stock.
// The `acceptenceLevel` tag spelling is the backend's, kept verbatim.
type Request struct {
	ID              string          `json:"id"`
	VehicleID       string          `json:"vehicleId"`
	VehicleName     string          `json:"vehicleName"`
	DealerID        string          `json:"dealerId"`
	DealerName      string          `json:"dealerName,omitempty"`
	AccountID       string          `json:"accountId"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	Quantity        int             `json:"quantity"`
	Description     string          `json:"description,omitempty"`
	Status          Status          `json:"status"`
	AcceptanceLevel AcceptanceLevel `json:"acceptenceLevel,omitempty"`
	AcceptedBy      string          `json:"acceptedBy,omitempty"`
	RejectReason    string          `json:"rejectReason,omitempty"`
	RequestDate     *string         `json:"requestDate,omitempty"`
	ResponseDate    *string         `json:"responseDate,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       *string         `json:"updatedAt,omitempty"`
	EscalatedAt     *string         `json:"escalatedAt,omitempty"`
	EscalatedBy     string          `json:"escalatedBy,omitempty"`
	ApprovedAt      *string         `json:"approvedAt,omitempty"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
}

// AwaitingCompany reports whether the request now belongs to the company
// tier. Either signal suffices: some legacy records carry the acceptance
// level without the status transition, so the status and the tag are
// honored as equivalent. This is the only place the rule lives.
func (r *Request) AwaitingCompany() bool {
	if r.Status == StatusEscalated {
		return true
	}
	return strings.EqualFold(string(r.AcceptanceLevel), string(LevelCompany))
}

// CreateInput for a new restock request; always starts Pending at dealer
// level.
type CreateInput struct {
	VehicleID   string
	Quantity    int
	Description string
}

// Filters narrows a request list query.
type Filters struct {
	Status    Status
	VehicleID string
	DateFrom  time.Time
	DateTo    time.Time
}

// API is the slice of the dealer-management backend this workflow talks
// to. Dealer-tier decisions have dedicated endpoints; company-tier
// decisions go through a status update, matching the backend contract.
type API interface {
	List(ctx context.Context, token string, f Filters) ([]Request, error)
	Get(ctx context.Context, token, id string) (*Request, error)
	Create(ctx context.Context, token string, in *CreateInput) (*Request, error)
	DealerAccept(ctx context.Context, token, id string) error
	DealerReject(ctx context.Context, token, id, reason string) error
	SetStatus(ctx context.Context, token, id string, status Status, reason string) error
}
