package orderstore

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

	"github.com/google/uuid"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/retry"
)

// DefaultTimeout bounds a single attempt against the remote store.
const DefaultTimeout = 8 * time.Second

// Client talks to a remote Order Store over HTTP. Every call gets a
// per-attempt timeout and is retried per the policy; rejections are not
// retried.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	policy  retry.Policy
	token   string
}

// NewClient creates a Client for the store at baseURL.
func NewClient(baseURL string, timeout time.Duration, policy retry.Policy) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		policy:  policy,
	}
}

// WithToken sends token as a bearer credential on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	var out OrderPayload
	if err := c.do(ctx, http.MethodPost, "/store/orders", NewPayload(o), &out); err != nil {
		return order.Order{}, fmt.Errorf("create order: %w", err)
	}
	return out.Order, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id uuid.UUID, o order.Order) (order.Order, error) {
	var out OrderPayload
	if err := c.do(ctx, http.MethodPut, "/store/orders/"+id.String(), NewPayload(o), &out); err != nil {
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}
	return out.Order, nil
}

func (c *Client) MarkPrepared(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, error) {
	var out TransitionResponse
	if err := c.do(ctx, http.MethodPost, transitionPath(orderID, lineID, kitchen, "prepared"), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) MarkPickedUp(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, order.PickupLedgerEntry, error) {
	var out TransitionResponse
	if err := c.do(ctx, http.MethodPost, transitionPath(orderID, lineID, kitchen, "picked-up"), nil, &out); err != nil {
		return "", order.PickupLedgerEntry{}, err
	}
	var entry order.PickupLedgerEntry
	if out.LedgerEntry != nil {
		entry = *out.LedgerEntry
	}
	return out.Status, entry, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var out []OrderPayload
	if err := c.do(ctx, http.MethodGet, "/store/orders", nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]order.Order, 0, len(out))
	for _, p := range out {
		orders = append(orders, p.Order)
	}
	return orders, nil
}

func transitionPath(orderID, lineID uuid.UUID, kitchen, action string) string {
	return fmt.Sprintf("/store/orders/%s/lines/%s/kitchens/%s/%s", orderID, lineID, url.PathEscape(kitchen), action)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	return c.policy.Do(ctx, func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(actx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", order.ErrTransientNetwork, method, path, err)
		}
		defer resp.Body.Close()
		return decodeResponse(resp, out)
	})
}

// decodeResponse maps the store's status codes onto the error kinds.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(data))
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		reason := e.Reason
		if reason == "" {
			reason = e.Error
		}
		return &order.TransitionError{Kitchen: e.Kitchen, From: e.From, To: e.To, Reason: reason}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, e.Error)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", order.ErrValidation, e.Error)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", order.ErrTransientNetwork, resp.StatusCode, e.Error)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, e.Error)
}
