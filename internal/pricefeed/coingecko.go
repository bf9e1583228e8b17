package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// FallbackCounter учитывает каждое срабатывание резервного курса.
// Резервный курс может устареть относительно рынка, поэтому каждое
// срабатывание должно быть наблюдаемым.
type FallbackCounter interface {
	IncPriceFeedFallback()
}

// defaultFallbackRateUSD резервный курс, когда в конфигурации задан
// невалидный. Нулевой курс превратил бы ожидаемую сумму в бесконечность
// и отклонил бы каждый платеж.
const defaultFallbackRateUSD = 100

// Config конфигурация для клиента курса валют
type Config struct {
	BaseURL         string
	AssetID         string
	FallbackRateUSD float64
	Timeout         time.Duration
}

// Client представляет клиент для работы с API CoinGecko
type Client struct {
	baseURL      string
	assetID      string
	fallbackRate float64
	httpClient   *http.Client
	fallbacks    FallbackCounter
	log          *logger.Logger
}

// NewClient создает новый клиент курса валют
func NewClient(cfg Config, fallbacks FallbackCounter, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	fallbackRate := cfg.FallbackRateUSD
	if fallbackRate <= 0 {
		log.Warnw("Invalid fallback rate configured, using default", "configured", cfg.FallbackRateUSD, "default", defaultFallbackRateUSD)
		fallbackRate = defaultFallbackRateUSD
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		assetID:      cfg.AssetID,
		fallbackRate: fallbackRate,
		httpClient:   &http.Client{Timeout: timeout},
		fallbacks:    fallbacks,
		log:          log,
	}
}

// USDRate возвращает текущий курс актива к доллару.
// Недоступность фида не блокирует платежи: на любой ошибке возвращается
// резервный курс и live == false.
func (c *Client) USDRate(ctx context.Context) (rate float64, live bool) {
	fetched, err := c.fetchRate(ctx)
	if err != nil {
		c.log.Warnw("Price feed unavailable, using fallback rate",
			"error", err, "asset", c.assetID, "fallbackRate", c.fallbackRate)
		if c.fallbacks != nil {
			c.fallbacks.IncPriceFeedFallback()
		}
		return c.fallbackRate, false
	}

	return fetched, true
}

// fetchRate запрашивает живой курс у фида
func (c *Client) fetchRate(ctx context.Context) (float64, error) {
	endpoint := fmt.Sprintf("%s?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(c.assetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("pricefeed: failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pricefeed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("pricefeed: unexpected status %d", resp.StatusCode)
	}

	// {"solana": {"usd": 178.35}}
	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("pricefeed: failed to decode response: %w", err)
	}

	quote, ok := body[c.assetID]
	if !ok {
		return 0, fmt.Errorf("pricefeed: asset %q missing in response", c.assetID)
	}

	rate, ok := quote["usd"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("pricefeed: invalid usd rate for %q", c.assetID)
	}

	return rate, nil
}
