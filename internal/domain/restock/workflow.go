package restock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dealerhub/internal/rbac"
)

var (
	// ErrNotPermitted means the actor's roles do not allow the operation.
	ErrNotPermitted = errors.New("not permitted")
	// ErrReasonRequired means a rejection was attempted without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")
)

// StateError reports a decision the request's current state does not
// allow.
type StateError struct {
	ID     string
	Status Status
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("restock request %s: cannot %s while %s", e.ID, e.Action, e.Status)
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

// CanCreate reports whether the roles may file a restock request: any
// dealer-side role.
func CanCreate(roles []string) bool {
	return rbac.HasAnyRole(roles, []rbac.Role{rbac.DealerStaff, rbac.DealerAdmin})
}

// CanDecideDealer reports whether the roles may act at the dealer tier.
func CanDecideDealer(roles []string) bool {
	return rbac.HasAnyRole(roles, []rbac.Role{rbac.DealerAdmin})
}

// CanDecideCompany reports whether the roles may act at the company tier.
func CanDecideCompany(roles []string) bool {
	return rbac.HasAnyRole(roles, []rbac.Role{rbac.CompanyAdmin})
}

// Service wraps the backend restock API with the portal's permission and
// state rules. Dealer approval escalates rather than finishes: the
// request moves to the company tier for the final decision.
type Service struct {
	api    API
	logger *zap.SugaredLogger
}

func NewService(api API, logger *zap.SugaredLogger) *Service {
	return &Service{api: api, logger: logger}
}

func (s *Service) List(ctx context.Context, actor Actor, f Filters) ([]Request, error) {
	reqs, err := s.api.List(ctx, actor.Token, f)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []Request{}
	}
	return reqs, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Request, error) {
	return s.api.Get(ctx, actor.Token, id)
}

// Create files a restock request. It always starts Pending at the dealer
// tier.
func (s *Service) Create(ctx context.Context, actor Actor, in *CreateInput) (*Request, error) {
	if !CanCreate(actor.Roles) {
		return nil, ErrNotPermitted
	}
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}
	if err := uuid.Validate(in.VehicleID); err != nil {
		return nil, &ValidationError{Field: "vehicleId", Message: "must be a valid identifier"}
	}

	req, err := s.api.Create(ctx, actor.Token, in)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("restock request filed",
		"id", req.ID, "vehicleId", req.VehicleID, "quantity", req.Quantity)
	return req, nil
}

// DealerApprove escalates a Pending request to the company tier.
func (s *Service) DealerApprove(ctx context.Context, actor Actor, id string) (*Request, error) {
	if !CanDecideDealer(actor.Roles) {
		return nil, ErrNotPermitted
	}

	req, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if err := dealerActionable(req, "approve"); err != nil {
		return nil, err
	}

	if err := s.api.DealerAccept(ctx, actor.Token, id); err != nil {
		return nil, err
	}
	s.logger.Infow("restock request escalated", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// DealerReject closes a Pending request at the dealer tier. The reason
// is mandatory and checked before anything leaves the process.
func (s *Service) DealerReject(ctx context.Context, actor Actor, id, reason string) (*Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if !CanDecideDealer(actor.Roles) {
		return nil, ErrNotPermitted
	}

	req, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if err := dealerActionable(req, "reject"); err != nil {
		return nil, err
	}

	if err := s.api.DealerReject(ctx, actor.Token, id, reason); err != nil {
		return nil, err
	}
	s.logger.Infow("restock request rejected at dealer tier", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// CompanyApprove grants a request the company escalated to final
// approval.
func (s *Service) CompanyApprove(ctx context.Context, actor Actor, id string) (*Request, error) {
	if !CanDecideCompany(actor.Roles) {
		return nil, ErrNotPermitted
	}

	req, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if err := companyActionable(req, "approve"); err != nil {
		return nil, err
	}

	if err := s.api.SetStatus(ctx, actor.Token, id, StatusApproved, ""); err != nil {
		return nil, err
	}
	s.logger.Infow("restock request approved", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// CompanyReject closes an escalated request at the company tier.
func (s *Service) CompanyReject(ctx context.Context, actor Actor, id, reason string) (*Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if !CanDecideCompany(actor.Roles) {
		return nil, ErrNotPermitted
	}

	req, err := s.api.Get(ctx, actor.Token, id)
	if err != nil {
		return nil, err
	}
	if err := companyActionable(req, "reject"); err != nil {
		return nil, err
	}

	if err := s.api.SetStatus(ctx, actor.Token, id, StatusCompanyRejected, reason); err != nil {
		return nil, err
	}
	s.logger.Infow("restock request rejected at company tier", "id", id, "by", actor.ID)
	return s.api.Get(ctx, actor.Token, id)
}

// dealerActionable: Pending, not yet handed to the company tier.
func dealerActionable(req *Request, action string) error {
	if req.Status.Terminal() || req.AwaitingCompany() || req.Status != StatusPending {
		return &StateError{ID: req.ID, Status: req.Status, Action: action}
	}
	return nil
}

// companyActionable: handed to the company tier and not yet decided.
func companyActionable(req *Request, action string) error {
	if req.Status.Terminal() || !req.AwaitingCompany() {
		return &StateError{ID: req.ID, Status: req.Status, Action: action}
	}
	return nil
}
