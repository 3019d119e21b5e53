package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tareksakakini/SipLocal-sub003/internal/config"
)

// CloverClient talks to the secondary POS back end. It only drives the
// fulfillment side: order creation and the external-tender payment record
// that makes externally-settled orders show up in the merchant's reporting.
type CloverClient interface {
	CreateOrder(ctx context.Context, accessToken, merchantLocationID string, req *CreatePOSOrderRequest) (string, error)
	RecordExternalPayment(ctx context.Context, accessToken, merchantLocationID, posOrderID string, amount int64) error
}

type cloverClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewCloverClient(cfg *config.Clover) CloverClient {
	return &cloverClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
	}
}

func (c *cloverClientImpl) CreateOrder(ctx context.Context, accessToken, merchantLocationID string, req *CreatePOSOrderRequest) (string, error) {
	orderPayload := map[string]interface{}{
		"state": "open",
		"title": req.RecipientName,
		"note":  fmt.Sprintf("pickup %s", req.PickupAt),
	}

	var orderResult struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/v3/merchants/%s/orders", merchantLocationID)
	if err := c.do(ctx, accessToken, http.MethodPost, path, orderPayload, &orderResult); err != nil {
		return "", err
	}

	for _, item := range req.LineItems {
		itemPayload := map[string]interface{}{
			"name":      item.Name,
			"price":     item.UnitPrice,
			"unitQty":   item.Quantity,
			"note":      item.Note,
			"printed":   false,
			"exchanged": false,
		}
		itemPath := fmt.Sprintf("/v3/merchants/%s/orders/%s/line_items", merchantLocationID, orderResult.ID)
		if err := c.do(ctx, accessToken, http.MethodPost, itemPath, itemPayload, nil); err != nil {
			return "", fmt.Errorf("add line item: %w", err)
		}
	}

	return orderResult.ID, nil
}

func (c *cloverClientImpl) RecordExternalPayment(ctx context.Context, accessToken, merchantLocationID, posOrderID string, amount int64) error {
	payload := map[string]interface{}{
		"order":  map[string]string{"id": posOrderID},
		"amount": amount,
		"tender": map[string]string{"labelKey": "com.clover.tender.external_payment"},
	}

	path := fmt.Sprintf("/v3/merchants/%s/orders/%s/payments", merchantLocationID, posOrderID)
	return c.do(ctx, accessToken, http.MethodPost, path, payload, nil)
}

func (c *cloverClientImpl) do(ctx context.Context, accessToken, method, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, bytes.NewBuffer(body))
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
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clover error %d: %s", resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
