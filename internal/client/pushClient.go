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

// PushClient delivers a notification to a set of device tokens.
type PushClient interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type pushClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	serverKey  string
}

func NewPushClient(cfg *config.Push) PushClient {
	return &pushClientImpl{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		serverKey:  cfg.ServerKey,
	}
}

func (c *pushClientImpl) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	payload := map[string]interface{}{
		"registration_ids": tokens,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/fcm/send", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push error %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
