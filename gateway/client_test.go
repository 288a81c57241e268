package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/gateway"
	apperrors "github.com/civilshq/civilshq-go/internal/errors"
	"github.com/civilshq/civilshq-go/session"
	fakestorage "github.com/civilshq/civilshq-go/session/storefakes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// testConfig satisfies config.Config against an httptest server.
type testConfig struct {
	baseURL string
	timeout int
}

func (c testConfig) GetEnv() string             { return "DEV" }
func (c testConfig) GetAppName() string         { return "test" }
func (c testConfig) GetAPIBaseURL() string      { return c.baseURL }
func (c testConfig) GetHTTPTimeoutSeconds() int { return c.timeout }
func (c testConfig) GetDataFolder() string      { return "" }
func (c testConfig) GetSessionHashKey() []byte  { return nil }
func (c testConfig) GetSessionBlockKey() []byte { return nil }

func newTestClient(t *testing.T, handler http.Handler) (*gateway.Client, *session.Store, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := session.NewStore(fakestorage.NewFakeStorage())
	require.NoError(t, err)

	client, err := gateway.New(testConfig{baseURL: server.URL, timeout: 5}, store)
	require.NoError(t, err)

	return client, store, server
}

func TestClient_BearerAttachedOnlyWhenAuthenticated(t *testing.T) {
	var gotAuth atomic.Value
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true}`))
	}))

	t.Run("logged out omits header", func(t *testing.T) {
		require.NoError(t, client.Get(context.Background(), "/api/home", nil))
		require.Equal(t, "", gotAuth.Load())
	})

	t.Run("logged in sends bearer token", func(t *testing.T) {
		require.NoError(t, store.Set("tok-123", session.RoleAspirant, "U1"))
		require.NoError(t, client.Get(context.Background(), "/api/home", nil))
		require.Equal(t, "Bearer tok-123", gotAuth.Load())
	})
}

func TestClient_UnauthorizedClearsSessionOnce(t *testing.T) {
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	}))
	require.NoError(t, store.Set("stale", session.RoleAdmin, "U1"))

	var clears atomic.Int32
	unsubscribe := store.Subscribe(func(s session.Session) {
		if !s.Authenticated() {
			clears.Add(1)
		}
	})
	defer unsubscribe()

	const inflight = 12
	var wg sync.WaitGroup
	errs := make([]error, inflight)
	for i := 0; i < inflight; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = client.Get(context.Background(), "/api/auth/me", nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		// Each rejection is either the 401 itself or, for requests issued
		// after the clear, an authentication error either way.
		require.ErrorIs(t, err, apperrors.ErrAuthentication)
	}
	require.False(t, store.IsAuthenticated())
	require.Equal(t, int32(1), clears.Load())

	var apiErr *civilsapi.APIError
	for _, err := range errs {
		if errors.As(err, &apiErr) {
			require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
			require.Equal(t, "token expired", apiErr.Message)
			break
		}
	}
}

func TestClient_ServerErrorCarriesMessage(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"course not found"}`, http.StatusNotFound)
	}))

	err := client.Get(context.Background(), "/api/courses/nope", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var apiErr *civilsapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "course not found", apiErr.Message)
}

func TestClient_ServerErrorWithoutBodyGetsGenericMessage(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.Get(context.Background(), "/api/home", nil)
	require.Error(t, err)

	var apiErr *civilsapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "502")
}

func TestClient_ConnectivityDistinctFromHTTPError(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		store, err := session.NewStore(fakestorage.NewFakeStorage())
		require.NoError(t, err)
		client, err := gateway.New(testConfig{baseURL: server.URL, timeout: 2}, store)
		require.NoError(t, err)
		server.Close()

		err = client.Get(context.Background(), "/api/home", nil)
		require.ErrorIs(t, err, apperrors.ErrConnectivity)
		require.NotErrorIs(t, err, apperrors.ErrAuthentication)
	})

	t.Run("stalled server times out as connectivity", func(t *testing.T) {
		stall := make(chan struct{})
		client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-stall
		}))
		defer close(stall)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		err := client.Get(ctx, "/api/home", nil)
		require.ErrorIs(t, err, apperrors.ErrConnectivity)
	})

	t.Run("401 does not clear on connectivity failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		store, err := session.NewStore(fakestorage.NewFakeStorage())
		require.NoError(t, err)
		client, err := gateway.New(testConfig{baseURL: server.URL, timeout: 2}, store)
		require.NoError(t, err)
		require.NoError(t, store.Set("tok", session.RoleAspirant, "U1"))
		server.Close()

		err = client.Get(context.Background(), "/api/auth/me", nil)
		require.ErrorIs(t, err, apperrors.ErrConnectivity)
		require.True(t, store.IsAuthenticated())
	})
}

func TestClient_DecodesAndValidatesResponse(t *testing.T) {
	t.Run("valid body decodes", func(t *testing.T) {
		client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"_id":"U1","name":"Asha","email":"a@x.com","role":"aspirant"}}`))
		}))

		var out civilsapi.MeResponse
		require.NoError(t, client.Get(context.Background(), "/api/auth/me", &out))
		require.Equal(t, "Asha", out.Data.Name)
	})

	t.Run("malformed body rejected at the boundary", func(t *testing.T) {
		client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"name":"no id or role"}}`))
		}))

		var out civilsapi.MeResponse
		err := client.Get(context.Background(), "/api/auth/me", &out)
		require.ErrorIs(t, err, civilsapi.MalformedResponseErr)
	})

	t.Run("non-JSON body rejected", func(t *testing.T) {
		client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway error</html>`))
		}))

		var out civilsapi.MeResponse
		err := client.Get(context.Background(), "/api/auth/me", &out)
		require.ErrorIs(t, err, civilsapi.MalformedResponseErr)
	})
}

func TestClient_BaseURLResolvedOnce(t *testing.T) {
	store, err := session.NewStore(fakestorage.NewFakeStorage())
	require.NoError(t, err)

	client, err := gateway.New(testConfig{baseURL: "http://localhost:5000/", timeout: 5}, store)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", client.BaseURL())
}
