package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/internal/config"
	apperrors "github.com/civilshq/civilshq-go/internal/errors"
	"github.com/civilshq/civilshq-go/session"
)

const maxResponseBytes = 1 << 20

// Client is the single egress point for every call to the platform API. It
// resolves the base URL once at construction, attaches the bearer credential
// for authenticated sessions, and clears the session store before any caller
// can observe a 401 rejection.
type Client struct {
	baseURL string
	store   *session.Store
	plain   *http.Client // requests made while logged out
	authed  *http.Client // requests carrying the bearer token
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithTransport replaces the underlying round tripper (primarily for testing).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.plain.Transport = rt
		c.authed.Transport = &oauth2.Transport{Base: rt, Source: storeTokenSource{c.store}}
	}
}

// New creates a Client against the configured API origin.
func New(cfg config.Config, store *session.Store, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[gateway.New] config is required")
	}
	if store == nil {
		return nil, errors.New("[gateway.New] session store is required")
	}

	baseURL := strings.TrimRight(cfg.GetAPIBaseURL(), "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "[gateway.New] invalid base URL")
	}

	timeout := time.Duration(cfg.GetHTTPTimeoutSeconds()) * time.Second

	client := &Client{
		baseURL: baseURL,
		store:   store,
		plain:   &http.Client{Timeout: timeout},
		authed: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Base:   http.DefaultTransport,
				Source: storeTokenSource{store},
			},
		},
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// storeTokenSource adapts the session store to oauth2.TokenSource so the
// standard oauth2 transport handles the Authorization header.
type storeTokenSource struct {
	store *session.Store
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	current := s.store.Get()
	if !current.Authenticated() {
		return nil, errors.Wrap(apperrors.ErrSessionExpired, "[storeTokenSource.Token]")
	}
	return &oauth2.Token{AccessToken: current.Token, TokenType: "Bearer"}, nil
}

// Do sends one request to the platform API. The decoded 2xx body is written
// into out when out is non-nil; any response type implementing
// civilsapi.Validator is validated before being handed back.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	httpClient := c.plain
	if c.store.IsAuthenticated() {
		httpClient = c.authed
	}

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrConnectivity, "[Client.Do] reading response body")
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode == http.StatusUnauthorized {
		// The session is invalid; no caller may observe it after this point.
		// Store.Clear is idempotent, so concurrent 401s clear exactly once.
		c.store.Clear()
		return errors.WithStack(&civilsapi.APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    serverMessage(raw),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WithStack(&civilsapi.APIError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(raw),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(civilsapi.MalformedResponseErr, err.Error())
	}
	if v, ok := out.(civilsapi.Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "[Client.Do] response validation")
		}
	}
	return nil
}

// Get issues an authenticated-when-possible GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// BaseURL returns the origin resolved at construction time.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.newRequest] json.Marshal")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newRequest] http.NewRequestWithContext")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

// classifyTransportError separates "no response at all" from everything
// else. A caller-cancelled context propagates as-is; timeouts and refused
// connections surface as connectivity errors, never as auth failures.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "[Client.Do] request cancelled")
	}
	// A cleared session between the authenticated check and the round trip
	// means the credential is gone, not that the network failed.
	if errors.Is(err, apperrors.ErrSessionExpired) {
		return apperrors.Wrapf(apperrors.ErrAuthentication, "session cleared mid-request")
	}
	return apperrors.Wrapf(apperrors.ErrConnectivity, "%v", err)
}

func serverMessage(raw []byte) string {
	var body civilsapi.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}
