package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/go-resty/resty/v2"
)

const (
	recomputePath  = "/forecast/run"
	defaultTimeout = 60 * time.Second
)

// Client calls the forecast service.
type Client struct {
	http *resty.Client
}

func NewClient(cfg config.ForecastConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: rc}
}

// Recompute refreshes the forecasts of the given products and waits for the
// service to confirm.
func (c *Client) Recompute(ctx context.Context, req domain.RecomputeRequest) (*domain.RecomputeResult, error) {
	var out domain.RecomputeResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(recomputePath)
	if err != nil {
		return nil, fmt.Errorf("forecast recompute request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast recompute returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return &out, nil
}
