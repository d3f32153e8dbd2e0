// Package client is the HTTP client the notifyd CLI uses to reach a running daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shaharia-lab/notifyd/internal/build"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/service"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the daemon's /api routes.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the daemon at baseURL. A nil httpClient uses a
// default client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Send presents a notification immediately.
func (c *Client) Send(ctx context.Context, req service.SendRequest) error {
	return c.do(ctx, http.MethodPost, "/notifications/send", req, nil)
}

// Schedule submits a timed notification and returns its id.
func (c *Client) Schedule(ctx context.Context, req service.ScheduleRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/notifications/schedule", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ScheduleDelayed submits a notification delayed by minutes and returns its id.
func (c *Client) ScheduleDelayed(ctx context.Context, req service.DelayedRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/notifications/delayed", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Cancel removes one notification by id.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

// CancelAll removes every notification and returns how many existed.
func (c *Client) CancelAll(ctx context.Context) (int, error) {
	return c.count(ctx, http.MethodDelete, "/notifications")
}

// CancelThread removes every notification of a thread and returns how many matched.
func (c *Client) CancelThread(ctx context.Context, threadID string) (int, error) {
	return c.count(ctx, http.MethodDelete, "/threads/"+url.PathEscape(threadID)+"/notifications")
}

// SetBadge sets the badge count.
func (c *Client) SetBadge(ctx context.Context, n int) error {
	return c.do(ctx, http.MethodPut, "/badge", countResponse{Count: n}, nil)
}

// ClearBadge resets the badge count to zero.
func (c *Client) ClearBadge(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/badge", nil, nil)
}

// Badge returns the badge count.
func (c *Client) Badge(ctx context.Context) (int, error) {
	return c.count(ctx, http.MethodGet, "/badge")
}

// PendingCount returns the number of pending notifications.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	return c.count(ctx, http.MethodGet, "/notifications/pending/count")
}

// Pending lists pending notifications.
func (c *Client) Pending(ctx context.Context) ([]notification.Request, error) {
	var out []notification.Request
	err := c.do(ctx, http.MethodGet, "/notifications/pending", nil, &out)
	return out, err
}

// Delivered lists delivered notifications.
func (c *Client) Delivered(ctx context.Context) ([]notification.Delivered, error) {
	var out []notification.Delivered
	err := c.do(ctx, http.MethodGet, "/notifications/delivered", nil, &out)
	return out, err
}

// Respond sends an action response for a delivered notification.
func (c *Client) Respond(ctx context.Context, resp service.ActionResponse) (*service.ActionResult, error) {
	var out service.ActionResult
	path := "/notifications/delivered/" + url.PathEscape(resp.NotificationID) + "/actions"
	if err := c.do(ctx, http.MethodPost, path, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Permission reports whether notifications are authorized.
func (c *Client) Permission(ctx context.Context) (bool, error) {
	return c.permission(ctx, http.MethodGet)
}

// RequestPermission asks the daemon for authorization.
func (c *Client) RequestPermission(ctx context.Context) (bool, error) {
	return c.permission(ctx, http.MethodPost)
}

// Categories lists the registered notification categories.
func (c *Client) Categories(ctx context.Context) ([]notification.CategoryDefinition, error) {
	var out []notification.CategoryDefinition
	err := c.do(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

// DeliveryLog returns up to limit recent presentation attempts.
func (c *Client) DeliveryLog(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error) {
	var out []storage.DeliveryLogEntry
	err := c.do(ctx, http.MethodGet, "/delivery-log?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Version returns the daemon's build information.
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.do(ctx, http.MethodGet, "/version", nil, &out)
	return out, err
}

type idResponse struct {
	ID string `json:"id"`
}

type countResponse struct {
	Count int `json:"count"`
}

type permissionResponse struct {
	Authorized bool `json:"authorized"`
}

func (c *Client) count(ctx context.Context, method, path string) (int, error) {
	var out countResponse
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) permission(ctx context.Context, method string) (bool, error) {
	var out permissionResponse
	if err := c.do(ctx, method, "/permission", nil, &out); err != nil {
		return false, err
	}
	return out.Authorized, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, r)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling notifyd at %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
