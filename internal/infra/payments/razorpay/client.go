// Package razorpay creates payment orders through the Razorpay Orders API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"homio/internal/app/policies"
	"homio/internal/domain/shared/fault"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client implements policies.PaymentGateway.
type Client struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
	HTTP      *http.Client
	Logger    *slog.Logger
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, req policies.OrderRequest) (policies.PaymentOrder, error) {
	if c == nil || c.KeyID == "" || c.KeySecret == "" {
		return policies.PaymentOrder{}, fault.Wrap(fault.ErrUpstream, errors.New("razorpay: credentials not configured"))
	}
	body, err := json.Marshal(orderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return policies.PaymentOrder{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/orders", bytes.NewReader(body))
	if err != nil {
		return policies.PaymentOrder{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.KeyID, c.KeySecret)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("razorpay: create order timed out after %s", c.timeout())
		} else {
			err = fmt.Errorf("razorpay: gateway unavailable: %w", err)
		}
		c.logError("order request failed", err)
		return policies.PaymentOrder{}, fault.Wrap(fault.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("razorpay: create order returned %d: %s", resp.StatusCode, describeError(resp.Body))
		c.logError("order rejected", err)
		return policies.PaymentOrder{}, fault.Wrap(fault.ErrUpstream, err)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		c.logError("order decode failed", err)
		return policies.PaymentOrder{}, fault.Wrap(fault.ErrUpstream, fmt.Errorf("razorpay: decode order: %w", err))
	}
	if order.ID == "" {
		return policies.PaymentOrder{}, fault.Wrap(fault.ErrUpstream, errors.New("razorpay: order id missing"))
	}
	return policies.PaymentOrder{
		ID:          order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
		Status:      order.Status,
	}, nil
}

func describeError(body io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(body, 1024))
	var parsed errorResponse
	if err := json.Unmarshal(snippet, &parsed); err == nil && parsed.Error.Description != "" {
		return parsed.Error.Code + ": " + parsed.Error.Description
	}
	return strings.TrimSpace(string(snippet))
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logError(msg string, err error) {
	if c.Logger != nil {
		c.Logger.Error(msg, "error", err)
	}
}

var _ policies.PaymentGateway = (*Client)(nil)
