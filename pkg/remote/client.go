// Package remote is the HTTP client of the investor API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/rs/zerolog"
)

const (
	DefaultAPIVersion      = "v1"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultResourceTimeout = 60 * time.Second
	DefaultUserAgent       = "go-investor/1.0"

	maxLoggedPayload = 512
)

// Config holds the configuration for the API client.
type Config struct {
	BaseURL    string
	APIVersion string
	// RequestTimeout bounds the wait for response headers.
	RequestTimeout time.Duration
	// ResourceTimeout bounds the whole exchange including the body.
	ResourceTimeout time.Duration
	UserAgent       string
}

// TokenSource yields the bearer token for a call. auth.CredentialStore
// satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client fetches typed resources from the investor API and maps every
// failure onto errkind.
type Client struct {
	baseURL    *url.URL
	apiVersion string
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger
}

// NewClient validates cfg and builds a client with its own transport.
func NewClient(cfg *Config, tokens TokenSource, logger zerolog.Logger) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("token source cannot be nil")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	resourceTimeout := cfg.ResourceTimeout
	if resourceTimeout <= 0 {
		resourceTimeout = DefaultResourceTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = requestTimeout

	logger.Info().Str("base_url", base.String()).Str("api_version", version).Msg("API client initialized.")

	return &Client{
		baseURL:    base,
		apiVersion: version,
		userAgent:  userAgent,
		httpClient: &http.Client{Transport: transport, Timeout: resourceTimeout},
		tokens:     tokens,
		logger:     logger.With().Str("component", "RemoteClient").Logger(),
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + "/api/" + c.apiVersion + path
	u.RawQuery = query.Encode()
	return u.String()
}

type validator interface {
	Validate() error
}

// get performs an authenticated GET and decodes the JSON body into T.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T

	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return zero, errkind.Wrap(errkind.NoAuthToken, err, "No authentication token found. Please sign in.")
	}

	requestID := uuid.NewString()
	endpoint := c.endpoint(path, query)
	log := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, errkind.Wrap(errkind.InvalidRequest, err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		e := errkind.From(err)
		log.Warn().Err(err).Str("kind", e.Kind.String()).Msg("Request failed.")
		return zero, e
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e := errkind.From(err)
		log.Warn().Err(err).Str("kind", e.Kind.String()).Msg("Failed to read response body.")
		return zero, e
	}
	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Int("bytes", len(body)).Msg("Response received.")

	if e := errkind.FromStatus(resp.StatusCode, extractErrorMessage(body)); e != nil {
		return zero, e
	}

	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		log.Error().Err(err).Str("payload", truncate(body)).Msg("Response failed to decode.")
		return zero, errkind.Wrap(errkind.DecodingError, err, "failed to decode "+path)
	}
	if v, ok := any(value).(validator); ok {
		if err := v.Validate(); err != nil {
			log.Error().Err(err).Str("payload", truncate(body)).Msg("Response failed validation.")
			return zero, errkind.Wrap(errkind.DecodingError, err, "invalid "+path+" payload")
		}
	}
	return value, nil
}

// extractErrorMessage reads {"detail": "..."} or {"error": "..."}.
func extractErrorMessage(body []byte) string {
	var msg struct {
		Detail *string `json:"detail"`
		Error  *string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	if msg.Detail != nil {
		return *msg.Detail
	}
	if msg.Error != nil {
		return *msg.Error
	}
	return ""
}

func truncate(body []byte) string {
	if len(body) <= maxLoggedPayload {
		return string(body)
	}
	return string(body[:maxLoggedPayload]) + "..."
}
