package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 1_048_576 // 1mb

// API groups the per-resource clients for the dealer-management backend,
// the single source of truth for every entity this portal shows.
type API struct {
	Auth       *AuthClient
	TestDrives *TestDriveClient
	Restock    *RestockClient
	Catalog    *CatalogClient
}

func New(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *API {
	c := &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	return &API{
		Auth:       &AuthClient{c},
		TestDrives: &TestDriveClient{c},
		Restock:    &RestockClient{c},
		Catalog:    &CatalogClient{c},
	}
}

// client owns the round trip plumbing shared by every resource. It
// distinguishes transport failures (retryable) from rejected requests
// (not retryable) and mutates nothing locally on failure.
type client struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// envelope mirrors the backend's ApiResponse<T> wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors,omitempty"`
}

// ConnectivityError means the backend could not be reached at all. Safe
// to retry; nothing happened upstream that this portal observed.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "cannot reach dealer-management server: " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StatusError means the backend answered and said no. Message carries the
// human-readable reason extracted from the response body when one exists.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dealer-management server returned %d: %s", e.StatusCode, e.Message)
}

const genericRejectionMessage = "request rejected by dealer-management server"

// do performs one round trip. A non-nil out is filled from the envelope's
// data field, or from the raw body when the backend skips the envelope.
func (c *client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return &ConnectivityError{Err: err}
	}

	if res.StatusCode >= 400 {
		return &StatusError{StatusCode: res.StatusCode, Message: extractMessage(raw)}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

// extractMessage pulls the human-readable reason out of an error body.
// Falls back to the raw text, then to a generic message.
func extractMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "<") {
		return text
	}
	return genericRejectionMessage
}
