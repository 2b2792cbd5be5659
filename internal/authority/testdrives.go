package authority

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"dealerhub/internal/domain/testdrive"
)

// TestDriveClient implements testdrive.API against the backend's
// TestDrive endpoints.
type TestDriveClient struct {
	c *client
}

func (t *TestDriveClient) List(ctx context.Context, token string, f testdrive.Filters) ([]testdrive.Booking, error) {
	q := url.Values{}
	if f.DealerID != "" {
		q.Set("dealerId", f.DealerID)
	}
	if f.VehicleID != "" {
		q.Set("vehicleId", f.VehicleID)
	}
	if f.CustomerName != "" {
		q.Set("customerName", f.CustomerName)
	}
	if !f.FromDate.IsZero() {
		q.Set("fromDate", f.FromDate.Format(time.RFC3339))
	}
	if !f.ToDate.IsZero() {
		q.Set("toDate", f.ToDate.Format(time.RFC3339))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}

	var out []testdrive.Booking
	if err := t.c.do(ctx, http.MethodGet, "/TestDrive", token, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TestDriveClient) Get(ctx context.Context, token, id string) (*testdrive.Booking, error) {
	var out testdrive.Booking
	if err := t.c.do(ctx, http.MethodGet, "/TestDrive/"+url.PathEscape(id), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TestDriveClient) Create(ctx context.Context, token string, in *testdrive.CreateInput) (*testdrive.Booking, error) {
	body := map[string]string{
		"testDate":        in.TestDate,
		"customerName":    in.CustomerName,
		"customerContact": in.CustomerContact,
		"notes":           in.Notes,
		"dealerId":        in.DealerID,
		"vehicleId":       in.VehicleID,
		"createdBy":       in.CreatedBy,
		"createdByName":   in.CreatedByName,
	}
	var out testdrive.Booking
	if err := t.c.do(ctx, http.MethodPost, "/TestDrive", token, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TestDriveClient) Update(ctx context.Context, token, id string, in *testdrive.UpdateInput) (*testdrive.Booking, error) {
	body := map[string]any{}
	if in.TestDate != nil {
		body["testDate"] = *in.TestDate
	}
	if in.CustomerName != nil {
		body["customerName"] = *in.CustomerName
	}
	if in.CustomerContact != nil {
		body["customerContact"] = *in.CustomerContact
	}
	if in.Notes != nil {
		body["notes"] = *in.Notes
	}
	if in.DealerID != nil {
		body["dealerId"] = *in.DealerID
	}
	if in.VehicleID != nil {
		body["vehicleId"] = *in.VehicleID
	}

	var out testdrive.Booking
	if err := t.c.do(ctx, http.MethodPut, "/TestDrive/"+url.PathEscape(id), token, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TestDriveClient) UpdateStatus(ctx context.Context, token, id string, status testdrive.Status) error {
	body := map[string]string{"status": string(status)}
	return t.c.do(ctx, http.MethodPut, "/TestDrive/"+url.PathEscape(id), token, nil, body, nil)
}

func (t *TestDriveClient) Delete(ctx context.Context, token, id string) error {
	return t.c.do(ctx, http.MethodDelete, "/TestDrive/"+url.PathEscape(id), token, nil, nil, nil)
}

func (t *TestDriveClient) Approve(ctx context.Context, token, id, approvedBy string) error {
	body := map[string]string{
		"testDriveId": id,
		"approvedBy":  approvedBy,
	}
	return t.c.do(ctx, http.MethodPost, "/TestDrive/"+url.PathEscape(id)+"/approve", token, nil, body, nil)
}

func (t *TestDriveClient) Reject(ctx context.Context, token, id, rejectedBy, reason string) error {
	body := map[string]string{
		"testDriveId":     id,
		"rejectedBy":      rejectedBy,
		"rejectionReason": reason,
	}
	return t.c.do(ctx, http.MethodPost, "/TestDrive/"+url.PathEscape(id)+"/reject", token, nil, body, nil)
}
