package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/security"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type Config struct {
	BaseURL       string
	APIKey        string
	Currency      string
	PublicBaseURL string
	SuccessMarker string
	Timeout       time.Duration
}

// Client talks to the hosted-checkout gateway: one form-encoded POST,
// raw-text response carrying the redirect URL. An initiation failure never
// invalidates the order; the caller keeps it PENDING and may retry.
type Client struct {
	cfg    Config
	signer *security.GatewaySigner
	http   *http.Client
}

func NewClient(cfg Config, signer *security.GatewaySigner) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		signer: signer,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Initiate(ctx context.Context, o *domain.Order, email string) (string, error) {
	amount100 := strconv.FormatInt(o.Total*100, 10)
	callbackURL := c.cfg.PublicBaseURL + "/payments/callback"

	form := url.Values{}
	form.Set("payment[order_id]", o.OrderNumber)
	form.Set("payment[amount_100]", amount100)
	form.Set("payment[currency_code]", c.cfg.Currency)
	form.Set("payment[callback_url]", callbackURL)
	form.Set("payment[return_url]", c.cfg.PublicBaseURL+"/payment/success?order="+o.OrderNumber)
	form.Set("payment[decline_url]", c.cfg.PublicBaseURL+"/payment/failed?order="+o.OrderNumber)
	form.Set("payment[cancel_url]", c.cfg.PublicBaseURL+"/payment/cancelled?order="+o.OrderNumber)
	form.Set("payment[email]", email)
	form.Set("api_key", c.cfg.APIKey)
	form.Set("hash", c.signer.PaymentHash(o.OrderNumber, amount100, c.cfg.Currency, callbackURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gateway status %d", resp.StatusCode)
	}

	// Success is a bare URL string, not JSON.
	redirect := strings.TrimSpace(string(body))
	if c.cfg.SuccessMarker != "" && !strings.Contains(redirect, c.cfg.SuccessMarker) {
		return "", fmt.Errorf("gateway response missing checkout url")
	}
	return redirect, nil
}

var _ usecase.PaymentGateway = (*Client)(nil)
