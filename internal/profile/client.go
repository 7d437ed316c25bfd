// Package profile talks to the remote profile API.
package profile

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

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
)

// ErrTooLarge is returned when a downloaded body exceeds the configured limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// Client fetches remote profiles and raw image bytes.
type Client interface {
	FetchProfile(ctx context.Context, userID string) (*domain.Profile, error)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds HTTP client settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MaxImageBytes int64
}

type profileEnvelope struct {
	Data *domain.Profile `json:"data"`
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	http     *http.Client
	baseURL  string
	maxBytes int64
	logger   zerolog.Logger
}

// NewHTTPClient creates a client for the profile API at cfg.BaseURL.
func NewHTTPClient(cfg Config, logger zerolog.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes: cfg.MaxImageBytes,
		logger:   logger.With().Str(pkglog.FieldComponent, "profile_client").Logger(),
	}
}

// FetchProfile retrieves GET <base>/users/{id} and decodes the data envelope.
func (c *HTTPClient) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	target := c.baseURL + "/users/" + url.PathEscape(userID)

	body, err := c.get(ctx, target, "application/json", 1<<20)
	if err != nil {
		return nil, err
	}

	var env profileEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &domain.RemoteFetchError{URL: target, Err: fmt.Errorf("decode profile: %w", err)}
	}
	if env.Data == nil {
		return nil, &domain.RemoteFetchError{URL: target, Err: errors.New("profile response has no data")}
	}
	return env.Data, nil
}

// FetchBytes downloads rawURL. Bodies larger than the configured limit fail with ErrTooLarge.
func (c *HTTPClient) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &domain.RemoteFetchError{URL: rawURL, Err: fmt.Errorf("unsupported url %q", rawURL)}
	}
	return c.get(ctx, rawURL, "image/*", c.maxBytes)
}

func (c *HTTPClient) get(ctx context.Context, target, accept string, limit int64) ([]byte, error) {
	l := pkglog.CtxOr(ctx, c.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &domain.RemoteFetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.RemoteFetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	l.Debug().
		Str(pkglog.FieldURL, target).
		Int(pkglog.FieldStatus, resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote fetch")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.RemoteFetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &domain.RemoteFetchError{URL: target, Err: err}
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, &domain.RemoteFetchError{URL: target, Err: ErrTooLarge}
	}
	return body, nil
}
