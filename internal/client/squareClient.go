package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tareksakakini/SipLocal-sub003/internal/config"
)

// SquareClient talks to the primary POS / payment provider. Credentials are
// per-merchant, so every call takes the merchant access token explicitly;
// the client only holds app-level config and the HTTP client.
type SquareClient interface {
	CreatePayment(ctx context.Context, accessToken string, req *CreatePaymentRequest) (*PaymentResult, error)
	CompletePayment(ctx context.Context, accessToken, paymentID string) error
	CancelPayment(ctx context.Context, accessToken, paymentID string) error

	CreateOrder(ctx context.Context, accessToken string, req *CreatePOSOrderRequest) (string, error)
	RecordExternalPayment(ctx context.Context, accessToken string, req *ExternalPaymentRequest) error
	ListLocations(ctx context.Context, accessToken string) ([]Location, error)

	FindOrCreateCustomer(ctx context.Context, accessToken, email, name string) (string, error)

	VerifyWebhookSignature(signature string, body []byte) error
}

type squareClientImpl struct {
	httpClient          *http.Client
	baseApiURL          string
	webhookSignatureKey string
	webhookURL          string
}

func NewSquareClient(cfg *config.Square) SquareClient {
	return &squareClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:          cfg.BaseApiURL,
		webhookSignatureKey: cfg.WebhookSignatureKey,
		webhookURL:          cfg.WebhookURL,
	}
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CreatePaymentRequest struct {
	SourceID       string
	Amount         int64
	Currency       string
	Autocomplete   bool
	CustomerID     string
	IdempotencyKey string
	ReferenceID    string
}

type PaymentResult struct {
	PaymentID string
	Status    string // APPROVED, COMPLETED, CANCELED, FAILED
}

type CreatePOSOrderRequest struct {
	LocationID     string
	LineItems      []POSLineItem
	PickupAt       string
	RecipientName  string
	ReferenceID    string
	IdempotencyKey string
}

type POSLineItem struct {
	Name      string
	Quantity  int32
	UnitPrice int64
	Currency  string
	Note      string
}

type ExternalPaymentRequest struct {
	LocationID     string
	POSOrderID     string
	Amount         int64
	Currency       string
	IdempotencyKey string
}

type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"` // ACTIVE, INACTIVE
}

// APIError is the provider's structured error, kept so the payment layer can
// map decline codes onto user-facing reasons.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Category   string `json:"category"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("square error %d: %s: %s", e.StatusCode, e.Code, e.Detail)
}

func (c *squareClientImpl) CreatePayment(ctx context.Context, accessToken string, req *CreatePaymentRequest) (*PaymentResult, error) {
	payload := map[string]interface{}{
		"source_id":       req.SourceID,
		"idempotency_key": req.IdempotencyKey,
		"amount_money":    Money{Amount: req.Amount, Currency: req.Currency},
		"autocomplete":    req.Autocomplete,
	}
	if req.CustomerID != "" {
		payload["customer_id"] = req.CustomerID
	}
	if req.ReferenceID != "" {
		payload["reference_id"] = req.ReferenceID
	}

	var result struct {
		Payment struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"payment"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/v2/payments", payload, &result); err != nil {
		return nil, err
	}

	return &PaymentResult{
		PaymentID: result.Payment.ID,
		Status:    result.Payment.Status,
	}, nil
}

func (c *squareClientImpl) CompletePayment(ctx context.Context, accessToken, paymentID string) error {
	path := fmt.Sprintf("/v2/payments/%s/complete", paymentID)
	return c.do(ctx, accessToken, http.MethodPost, path, map[string]interface{}{}, nil)
}

func (c *squareClientImpl) CancelPayment(ctx context.Context, accessToken, paymentID string) error {
	path := fmt.Sprintf("/v2/payments/%s/cancel", paymentID)
	return c.do(ctx, accessToken, http.MethodPost, path, map[string]interface{}{}, nil)
}

func (c *squareClientImpl) CreateOrder(ctx context.Context, accessToken string, req *CreatePOSOrderRequest) (string, error) {
	lineItems := make([]map[string]interface{}, len(req.LineItems))
	for i, item := range req.LineItems {
		li := map[string]interface{}{
			"name":             item.Name,
			"quantity":         fmt.Sprintf("%d", item.Quantity),
			"base_price_money": Money{Amount: item.UnitPrice, Currency: item.Currency},
		}
		if item.Note != "" {
			li["note"] = item.Note
		}
		lineItems[i] = li
	}

	order := map[string]interface{}{
		"location_id": req.LocationID,
		"line_items":  lineItems,
	}
	if req.ReferenceID != "" {
		order["reference_id"] = req.ReferenceID
	}
	if req.PickupAt != "" || req.RecipientName != "" {
		pickup := map[string]interface{}{}
		if req.PickupAt != "" {
			pickup["pickup_at"] = req.PickupAt
		}
		if req.RecipientName != "" {
			pickup["recipient"] = map[string]string{"display_name": req.RecipientName}
		}
		order["fulfillments"] = []map[string]interface{}{
			{
				"type":           "PICKUP",
				"pickup_details": pickup,
			},
		}
	}

	payload := map[string]interface{}{
		"idempotency_key": req.IdempotencyKey,
		"order":           order,
	}

	var result struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/v2/orders", payload, &result); err != nil {
		return "", err
	}

	return result.Order.ID, nil
}

func (c *squareClientImpl) RecordExternalPayment(ctx context.Context, accessToken string, req *ExternalPaymentRequest) error {
	payload := map[string]interface{}{
		"source_id":       "EXTERNAL",
		"idempotency_key": req.IdempotencyKey,
		"amount_money":    Money{Amount: req.Amount, Currency: req.Currency},
		"order_id":        req.POSOrderID,
		"location_id":     req.LocationID,
		"external_details": map[string]string{
			"type":   "OTHER",
			"source": "siplocal",
		},
	}

	return c.do(ctx, accessToken, http.MethodPost, "/v2/payments", payload, nil)
}

func (c *squareClientImpl) ListLocations(ctx context.Context, accessToken string) ([]Location, error) {
	var result struct {
		Locations []Location `json:"locations"`
	}
	if err := c.do(ctx, accessToken, http.MethodGet, "/v2/locations", nil, &result); err != nil {
		return nil, err
	}
	return result.Locations, nil
}

func (c *squareClientImpl) FindOrCreateCustomer(ctx context.Context, accessToken, email, name string) (string, error) {
	searchPayload := map[string]interface{}{
		"query": map[string]interface{}{
			"filter": map[string]interface{}{
				"email_address": map[string]string{"exact": email},
			},
		},
	}

	var searchResult struct {
		Customers []struct {
			ID string `json:"id"`
		} `json:"customers"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/v2/customers/search", searchPayload, &searchResult); err != nil {
		return "", err
	}
	if len(searchResult.Customers) > 0 {
		return searchResult.Customers[0].ID, nil
	}

	createPayload := map[string]interface{}{
		"email_address": email,
		"given_name":    name,
	}
	var createResult struct {
		Customer struct {
			ID string `json:"id"`
		} `json:"customer"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/v2/customers", createPayload, &createResult); err != nil {
		return "", err
	}

	return createResult.Customer.ID, nil
}

// VerifyWebhookSignature checks the provider HMAC: base64(hmac-sha256(key,
// notificationURL + rawBody)) against the signature header.
func (c *squareClientImpl) VerifyWebhookSignature(signature string, body []byte) error {
	if c.webhookSignatureKey == "" {
		return fmt.Errorf("webhook signature key not configured")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSignatureKey))
	mac.Write([]byte(c.webhookURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}

func (c *squareClientImpl) do(ctx context.Context, accessToken, method, path string, payload interface{}, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	var errBody struct {
		Errors []APIError `json:"errors"`
	}
	if err := json.Unmarshal(b, &errBody); err == nil && len(errBody.Errors) > 0 {
		apiErr := errBody.Errors[0]
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       "UNKNOWN",
		Detail:     string(b),
	}
}
