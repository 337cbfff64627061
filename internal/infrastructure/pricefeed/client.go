package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Client fetches spot prices from the configured provider endpoint. The
// provider returns a JSON object with USD-per-troy-ounce quotes:
// {"gold": 2410.5, "silver": 29.1, "platinum": 960.0}
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a price feed client
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		url: cfg.PriceFeedURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// FetchSpot fetches the current spot quote for all metals
func (c *Client) FetchSpot(ctx context.Context) (*domain.SpotQuote, error) {
	if c.url == "" {
		return nil, domain.ErrPriceFeedUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building price feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Price feed request failed", zap.String("url", c.url), zap.Error(err))
		return nil, domain.ErrPriceFeedUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Price feed returned unexpected status",
			zap.String("url", c.url),
			zap.Int("status", resp.StatusCode))
		return nil, domain.ErrPriceFeedUnavailable
	}

	var quote domain.SpotQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		c.logger.Error("Failed to decode price feed response", zap.Error(err))
		return nil, domain.ErrPriceFeedUnavailable
	}

	if quote.Gold <= 0 || quote.Silver <= 0 || quote.Platinum <= 0 {
		c.logger.Error("Price feed returned non-positive quote",
			zap.Float64("gold", quote.Gold),
			zap.Float64("silver", quote.Silver),
			zap.Float64("platinum", quote.Platinum))
		return nil, domain.ErrPriceFeedUnavailable
	}

	return &quote, nil
}
