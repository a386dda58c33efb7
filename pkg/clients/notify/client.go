package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stocktrend/internal/config"
)

// Client delivers stock alerts to an external channel.
type Client interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// Alert is the payload posted to the webhook. Text is a plain digest of the flagged models.
type Alert struct {
	Title              string   `json:"title"`
	Text               string   `json:"text"`
	ReportID           string   `json:"report_id"`
	Source             string   `json:"source"`
	LowStockModels     []string `json:"low_stock_models"`
	OutExceedsInModels []string `json:"out_exceeds_in_models"`
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.AlertsConfig) *WebhookClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		url:        cfg.WebhookURL,
	}
}

// apiError represents a generic JSON error body returned by the webhook.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SendAlert posts the alert as JSON.
func (c *WebhookClient) SendAlert(ctx context.Context, alert Alert) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send stock alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("alert webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
