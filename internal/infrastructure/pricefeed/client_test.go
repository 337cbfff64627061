package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClientFor(url string) *Client {
	cfg := config.NewConfig()
	cfg.PriceFeedURL = url
	return NewClient(cfg, zap.NewNop())
}

func TestFetchSpot(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"gold": 2410.5, "silver": 29.1, "platinum": 960.0}`))
		}))
		defer server.Close()

		quote, err := newClientFor(server.URL).FetchSpot(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 2410.5, quote.Gold, 0.001)
		assert.InDelta(t, 29.1, quote.Silver, 0.001)
		assert.InDelta(t, 960.0, quote.Platinum, 0.001)
	})

	t.Run("no URL configured", func(t *testing.T) {
		_, err := newClientFor("").FetchSpot(context.Background())
		assert.ErrorIs(t, err, domain.ErrPriceFeedUnavailable)
	})

	t.Run("upstream error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newClientFor(server.URL).FetchSpot(context.Background())
		assert.ErrorIs(t, err, domain.ErrPriceFeedUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>down</html>"))
		}))
		defer server.Close()

		_, err := newClientFor(server.URL).FetchSpot(context.Background())
		assert.ErrorIs(t, err, domain.ErrPriceFeedUnavailable)
	})

	t.Run("non-positive quote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"gold": 0, "silver": 29.1, "platinum": 960.0}`))
		}))
		defer server.Close()

		_, err := newClientFor(server.URL).FetchSpot(context.Background())
		assert.ErrorIs(t, err, domain.ErrPriceFeedUnavailable)
	})
}
