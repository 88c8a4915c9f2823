package api

// CRM API CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	retries    uint64
}

// OrderRequest is the payload forwarded to the CRM for every committed order.
type OrderRequest struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username,omitempty"`
	Text            string    `json:"text"`
	FullName        string    `json:"full_name,omitempty"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	PaymentMethod   string    `json:"payment_method,omitempty"`
	Contact         string    `json:"contact,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		retries: 3,
	}
}

// CreateOrder posts the order to <base>/api/orders. Server errors are retried
// with backoff; client errors are returned immediately.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	attempt := func() error {
		httpReq, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			fmt.Sprintf("%s/api/orders", c.baseURL),
			bytes.NewReader(body),
		)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond

	return backoff.RetryNotify(
		attempt,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx),
		func(err error, next time.Duration) {
			c.logger.Warn("CRM request failed, retrying...",
				zap.Int64("order_id", req.ID),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
}
