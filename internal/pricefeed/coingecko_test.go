package pricefeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

type countingFallbacks struct {
	count int
}

func (c *countingFallbacks) IncPriceFeedFallback() {
	c.count++
}

func newFeedClient(baseURL string, fallbacks FallbackCounter) *Client {
	return NewClient(Config{
		BaseURL:         baseURL,
		AssetID:         "solana",
		FallbackRateUSD: 100,
	}, fallbacks, newTestLogger())
}

func TestUSDRate_Live(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"solana":{"usd":178.35}}`))
	}))
	defer server.Close()

	fallbacks := &countingFallbacks{}
	client := newFeedClient(server.URL, fallbacks)

	rate, live := client.USDRate(context.Background())
	assert.True(t, live)
	assert.InDelta(t, 178.35, rate, 0.001)
	assert.Equal(t, 0, fallbacks.count)
}

func TestUSDRate_FallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fallbacks := &countingFallbacks{}
	client := newFeedClient(server.URL, fallbacks)

	rate, live := client.USDRate(context.Background())
	assert.False(t, live)
	assert.Equal(t, 100.0, rate)
	assert.Equal(t, 1, fallbacks.count)
}

func TestUSDRate_FallbackOnMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>rate limited</html>"},
		{"asset missing", `{"bitcoin":{"usd":60000}}`},
		{"usd missing", `{"solana":{"eur":160.12}}`},
		{"non-positive rate", `{"solana":{"usd":0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			fallbacks := &countingFallbacks{}
			client := newFeedClient(server.URL, fallbacks)

			rate, live := client.USDRate(context.Background())
			assert.False(t, live)
			assert.Equal(t, 100.0, rate)
			assert.Equal(t, 1, fallbacks.count)
		})
	}
}

func TestUSDRate_FallbackOnUnreachableFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	fallbacks := &countingFallbacks{}
	client := newFeedClient(server.URL, fallbacks)

	rate, live := client.USDRate(context.Background())
	assert.False(t, live)
	assert.Equal(t, 100.0, rate)
	require.Equal(t, 1, fallbacks.count)
}

func TestNewClient_InvalidFallbackRateUsesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// Нулевой резервный курс дал бы бесконечную ожидаемую сумму
	client := NewClient(Config{
		BaseURL:         server.URL,
		AssetID:         "solana",
		FallbackRateUSD: 0,
	}, nil, newTestLogger())

	rate, live := client.USDRate(context.Background())
	assert.False(t, live)
	assert.Equal(t, 100.0, rate)
}

func TestUSDRate_NilCounterIsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newFeedClient(server.URL, nil)

	rate, live := client.USDRate(context.Background())
	assert.False(t, live)
	assert.Equal(t, 100.0, rate)
}
