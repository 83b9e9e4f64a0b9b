/**
 * @description
 * Client for the Razorpay REST API: order creation, checkout options for the
 * browser modal, and payment signature verification.
 */
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.razorpay.com"

var ErrNotConfigured = errors.New("razorpay credentials are not configured")

// Client talks to Razorpay with basic auth.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewClient creates a Razorpay client. An empty baseURL uses the public API.
func NewClient(baseURL, keyID, keySecret string) *Client {
	normalizedURL := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if normalizedURL == "" {
		normalizedURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    normalizedURL,
		keyID:      strings.TrimSpace(keyID),
		keySecret:  strings.TrimSpace(keySecret),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// KeyID is the public key handed to the checkout modal.
func (c *Client) KeyID() string {
	return c.keyID
}

// Order is the subset of the Razorpay order resource KioskPay uses.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// APIError is a non-2xx answer from Razorpay.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("razorpay returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("razorpay returned status %d: %s (%s)", e.StatusCode, e.Description, e.Code)
}

// CreateOrder registers an order for amountPaise.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, ErrNotConfigured
	}
	if amountPaise <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amountPaise)
	}

	payload := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("razorpay: empty order id")
	}
	return &order, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Description = envelope.Error.Description
	}
	return apiErr
}

// VerifyPaymentSignature checks the signature the checkout modal hands back
// on success. It never calls the network.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Signature(c.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Signature computes hex(HMAC-SHA256(orderID|paymentID, secret)).
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ToPaise converts rupees to the smallest currency unit.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Prefill seeds the checkout form.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// CheckoutOptions is what the browser passes to the Razorpay modal.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	ThemeColor  string  `json:"theme_color,omitempty"`
}

// CheckoutOptions builds the modal options for order.
func (c *Client) CheckoutOptions(order Order, name, description string, prefill Prefill) CheckoutOptions {
	return CheckoutOptions{
		Key:         c.keyID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        name,
		Description: description,
		OrderID:     order.ID,
		Prefill:     prefill,
		ThemeColor:  "#2563eb",
	}
}
