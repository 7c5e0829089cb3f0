package pesapal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://pay.pesapal.com/v3"

// StatusCompleted is the payment_status_description Pesapal reports for a
// settled transaction.
const StatusCompleted = "Completed"

var ErrNotConfigured = errors.New("pesapal consumer credentials are not set")

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	NotificationID string
	CallbackURL    string
	Timeout        time.Duration
}

type BillingAddress struct {
	EmailAddress string `json:"email_address,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	City         string `json:"city,omitempty"`
	Line1        string `json:"line_1,omitempty"`
}

type OrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress BillingAddress `json:"billing_address"`
}

type OrderResponse struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Status            string    `json:"status"`
	Error             *APIError `json:"error"`
}

type TransactionStatus struct {
	PaymentMethod            string    `json:"payment_method"`
	Amount                   float64   `json:"amount"`
	ConfirmationCode         string    `json:"confirmation_code"`
	PaymentStatusDescription string    `json:"payment_status_description"`
	MerchantReference        string    `json:"merchant_reference"`
	Currency                 string    `json:"currency"`
	StatusCode               int       `json:"status_code"`
	Error                    *APIError `json:"error"`
}

func (t *TransactionStatus) Completed() bool {
	return strings.EqualFold(t.PaymentStatusDescription, StatusCompleted)
}

type APIError struct {
	ErrorType string `json:"error_type"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (e *APIError) present() bool {
	return e != nil && (e.Code != "" || e.Message != "" || e.ErrorType != "")
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pesapal error %s: %s", e.Code, e.Message)
}

type tokenResponse struct {
	Token      string    `json:"token"`
	ExpiryDate time.Time `json:"expiryDate"`
	Error      *APIError `json:"error"`
}

// Client talks to the Pesapal v3 API. Access tokens are cached until shortly
// before they expire.
type Client struct {
	cfg  Config
	http *resty.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{cfg: cfg, http: httpClient}
}

func (c *Client) NotificationID() string {
	return c.cfg.NotificationID
}

func (c *Client) CallbackURL() string {
	return c.cfg.CallbackURL
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"consumer_key":    c.cfg.ConsumerKey,
			"consumer_secret": c.cfg.ConsumerSecret,
		}).
		SetResult(&out).
		Post("/api/Auth/RequestToken")
	if err != nil {
		return "", fmt.Errorf("pesapal token request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("pesapal token request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error.present() {
		return "", out.Error
	}
	if out.Token == "" {
		return "", fmt.Errorf("token not found in response: %s", resp.String())
	}

	c.token = out.Token
	c.tokenExpiry = time.Now().Add(4 * time.Minute)
	if !out.ExpiryDate.IsZero() {
		c.tokenExpiry = out.ExpiryDate.Add(-30 * time.Second)
	}
	return c.token, nil
}

// SubmitOrder registers a payment request and returns the redirect url the
// customer completes payment at.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	if c.cfg.NotificationID == "" {
		return nil, errors.New("pesapal notification id is not set")
	}
	if req.NotificationID == "" {
		req.NotificationID = c.cfg.NotificationID
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.cfg.CallbackURL
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var out OrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&out).
		Post("/api/Transactions/SubmitOrderRequest")
	if err != nil {
		return nil, fmt.Errorf("pesapal submit order: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("pesapal submit order failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error.present() {
		return nil, out.Error
	}
	if out.RedirectURL == "" || out.OrderTrackingID == "" {
		return nil, fmt.Errorf("incomplete response from payment gateway: %s", resp.String())
	}
	return &out, nil
}

func (c *Client) TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var out TransactionStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("orderTrackingId", trackingID).
		SetResult(&out).
		Get("/api/Transactions/GetTransactionStatus")
	if err != nil {
		return nil, fmt.Errorf("pesapal transaction status: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("pesapal transaction status failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error.present() {
		return nil, out.Error
	}
	return &out, nil
}
