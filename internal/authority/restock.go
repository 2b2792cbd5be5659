package authority

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"dealerhub/internal/domain/restock"
)

// RestockClient implements restock.API. Dealer-tier decisions have
// dedicated endpoints; company-tier decisions travel as status updates,
// matching the backend contract.
type RestockClient struct {
	c *client
}

func (r *RestockClient) List(ctx context.Context, token string, f restock.Filters) ([]restock.Request, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.VehicleID != "" {
		q.Set("vehicleId", f.VehicleID)
	}
	if !f.DateFrom.IsZero() {
		q.Set("dateFrom", f.DateFrom.Format(time.RFC3339))
	}
	if !f.DateTo.IsZero() {
		q.Set("dateTo", f.DateTo.Format(time.RFC3339))
	}

	var out []restock.Request
	if err := r.c.do(ctx, http.MethodGet, "/RestockRequest/dealer", token, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RestockClient) Get(ctx context.Context, token, id string) (*restock.Request, error) {
	var out restock.Request
	if err := r.c.do(ctx, http.MethodGet, "/RestockRequest/"+url.PathEscape(id), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RestockClient) Create(ctx context.Context, token string, in *restock.CreateInput) (*restock.Request, error) {
	body := map[string]any{
		"vehicleId":   in.VehicleID,
		"quantity":    in.Quantity,
		"description": in.Description,
	}
	var out restock.Request
	if err := r.c.do(ctx, http.MethodPost, "/RestockRequest", token, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RestockClient) DealerAccept(ctx context.Context, token, id string) error {
	return r.c.do(ctx, http.MethodPost, "/RestockRequest/"+url.PathEscape(id)+"/accept", token, nil, nil, nil)
}

func (r *RestockClient) DealerReject(ctx context.Context, token, id, reason string) error {
	q := url.Values{}
	q.Set("rejectReason", reason)
	return r.c.do(ctx, http.MethodPost, "/RestockRequest/"+url.PathEscape(id)+"/reject", token, q, nil, nil)
}

func (r *RestockClient) SetStatus(ctx context.Context, token, id string, status restock.Status, reason string) error {
	body := map[string]string{"status": string(status)}
	if reason != "" {
		body["rejectReason"] = reason
	}
	return r.c.do(ctx, http.MethodPut, "/RestockRequest/"+url.PathEscape(id), token, nil, body, nil)
}
