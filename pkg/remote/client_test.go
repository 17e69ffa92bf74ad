package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/illmade-knight/go-investor/pkg/auth"
	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/illmade-knight/go-investor/pkg/remote"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, tokens remote.TokenSource, mutate ...func(*remote.Config)) *remote.Client {
	t.Helper()
	cfg := &remote.Config{BaseURL: url}
	for _, m := range mutate {
		m(cfg)
	}
	c, err := remote.NewClient(cfg, tokens, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestClient_RequestShape(t *testing.T) {
	var seen atomic.Pointer[http.Request]
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Clone(context.Background()))
		switch r.URL.Path {
		case "/api/v1/stock/list":
			_, _ = w.Write([]byte(`[{"symbol":"VOD","companyName":"Vodafone Group"}]`))
		case "/api/v1/stock/AAPL/overview":
			_, _ = w.Write([]byte(`{"symbol":"AAPL","profile":{"symbol":"AAPL"},"score":{"overall":1,"maxScore":182}}`))
		case "/api/v1/users/me/home":
			_, _ = w.Write([]byte(`{"portfolio":[],"watchlists":[],"recently_viewed":[]}`))
		case "/api/v1/users/me/subscription":
			_, _ = w.Write([]byte(`{"privilegeLevel":"free","stocksViewedThisMonth":3,"stockLimitPerMonth":10}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()
	client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore("secret"), func(c *remote.Config) {
		c.UserAgent = "investor-test"
	})

	t.Run("stock list upper-cases the country", func(t *testing.T) {
		list, err := client.FetchStockList(ctx, "gb")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "VOD", list[0].Symbol)

		r := seen.Load()
		assert.Equal(t, "GB", r.URL.Query().Get("country"))
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "investor-test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
	})

	t.Run("stock list defaults to US", func(t *testing.T) {
		_, err := client.FetchStockList(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "US", seen.Load().URL.Query().Get("country"))
	})

	t.Run("overview upper-cases the symbol", func(t *testing.T) {
		o, err := client.FetchStockOverview(ctx, "aapl")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", o.Symbol)
		assert.Equal(t, "/api/v1/stock/AAPL/overview", seen.Load().URL.Path)
	})

	t.Run("home and subscription", func(t *testing.T) {
		_, err := client.FetchHome(ctx)
		require.NoError(t, err)

		sub, err := client.FetchSubscription(ctx)
		require.NoError(t, err)
		remaining, limited := sub.RemainingViews()
		assert.True(t, limited)
		assert.Equal(t, 7, remaining)
	})

	t.Run("empty symbol is rejected locally", func(t *testing.T) {
		_, err := client.FetchStockOverview(ctx, "  ")
		assert.Equal(t, errkind.InvalidRequest, errkind.KindOf(err))
	})
}

func TestClient_NoTokenFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore(""))

	_, err := client.FetchStockList(context.Background(), "US")
	require.Error(t, err)

	var e *errkind.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errkind.NoAuthToken, e.Kind)
	assert.True(t, e.RequiresReauth())
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_StatusMapping(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		kind    errkind.Kind
		message string
	}{
		{"400 with detail", http.StatusBadRequest, `{"detail":"country not supported"}`, errkind.InvalidRequest, "country not supported"},
		{"400 with error field", http.StatusBadRequest, `{"error":"bad country"}`, errkind.InvalidRequest, "bad country"},
		{"400 without body", http.StatusBadRequest, ``, errkind.InvalidRequest, "Invalid request"},
		{"401", http.StatusUnauthorized, `{"detail":"expired"}`, errkind.Unauthorized, "Authentication failed. Please sign in again."},
		{"403 view limit", http.StatusForbidden, `{"detail":"Monthly stock view limit reached"}`, errkind.Forbidden, "Monthly stock view limit reached"},
		{"403 without body", http.StatusForbidden, `not json`, errkind.Forbidden, "Access forbidden"},
		{"404", http.StatusNotFound, ``, errkind.NotFound, ""},
		{"500", http.StatusInternalServerError, ``, errkind.ServerError, ""},
		{"502", http.StatusBadGateway, ``, errkind.ServerError, ""},
		{"418", http.StatusTeapot, ``, errkind.HTTPError, ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore("t"))
			_, err := client.FetchStockList(context.Background(), "US")

			var e *errkind.Error
			require.True(t, errors.As(err, &e), "got %v", err)
			assert.Equal(t, tc.kind, e.Kind)
			assert.Equal(t, tc.status, e.Code)
			assert.Equal(t, tc.message, e.Message)
		})
	}
}

func TestClient_DecodingError(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `[{"symbol":`},
		{"wrong shape", `{"symbol":"AAPL"}`},
		{"item without symbol", `[{"companyName":"Ghost"}]`},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore("t"))
			_, err := client.FetchStockList(context.Background(), "US")
			assert.Equal(t, errkind.DecodingError, errkind.KindOf(err))
		})
	}
}

func TestClient_TransportFailures(t *testing.T) {
	t.Run("slow headers surface as timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(server.Close)

		client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore("t"), func(c *remote.Config) {
			c.RequestTimeout = 50 * time.Millisecond
			c.ResourceTimeout = time.Second
		})
		_, err := client.FetchHome(context.Background())
		e := errkind.From(err)
		assert.Equal(t, errkind.Timeout, e.Kind)
		assert.True(t, e.Retryable())
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := newTestClient(t, url, auth.NewMemoryCredentialStore("t"))
		_, err := client.FetchHome(context.Background())
		assert.Equal(t, errkind.NetworkUnreachable, errkind.KindOf(err))
	})

	t.Run("caller cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(server.Close)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		client := newTestClient(t, server.URL, auth.NewMemoryCredentialStore("t"))
		_, err := client.FetchHome(ctx)
		assert.Equal(t, errkind.Canceled, errkind.KindOf(err))
	})
}

func TestNewClient_Validation(t *testing.T) {
	_, err := remote.NewClient(&remote.Config{BaseURL: "not a url"}, auth.NewMemoryCredentialStore(""), zerolog.Nop())
	assert.Error(t, err)
	_, err = remote.NewClient(&remote.Config{BaseURL: "https://api.example.com"}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "US", remote.NormalizeCountry(""))
	assert.Equal(t, "GB", remote.NormalizeCountry(" gb "))
}
