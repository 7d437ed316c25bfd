package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/retry"
)

func newClient(srv *httptest.Server, maxBytes int64) *HTTPClient {
	return NewHTTPClient(Config{BaseURL: srv.URL + "/api/", Timeout: time.Second, MaxImageBytes: maxBytes}, zerolog.Nop())
}

func TestHTTPClient_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":1,"email":"george.bluth@reqres.in","first_name":"George","last_name":"Bluth","avatar":"https://reqres.in/img/faces/1-image.jpg"}}`))
	}))
	defer srv.Close()

	p, err := newClient(srv, 0).FetchProfile(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "George", p.FirstName)
	assert.Equal(t, "https://reqres.in/img/faces/1-image.jpg", p.Avatar)
}

func TestHTTPClient_FetchProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newClient(srv, 0).FetchProfile(context.Background(), "999")
	var rErr *domain.RemoteFetchError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, http.StatusNotFound, rErr.StatusCode)
	assert.Contains(t, rErr.URL, "/users/999")
}

func TestHTTPClient_FetchProfileMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newClient(srv, 0).FetchProfile(context.Background(), "1")
	var rErr *domain.RemoteFetchError
	assert.ErrorAs(t, err, &rErr)
}

func TestHTTPClient_FetchBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer srv.Close()

	data, err := newClient(srv, 10).FetchBytes(context.Background(), srv.URL+"/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
}

func TestHTTPClient_FetchBytesTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := newClient(srv, 16).FetchBytes(context.Background(), srv.URL+"/img.jpg")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestHTTPClient_FetchBytesRejectsScheme(t *testing.T) {
	c := NewHTTPClient(Config{BaseURL: "http://example.invalid"}, zerolog.Nop())
	_, err := c.FetchBytes(context.Background(), "file:///etc/passwd")
	var rErr *domain.RemoteFetchError
	assert.ErrorAs(t, err, &rErr)
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}
}

func TestRetryingClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("img"))
	}))
	defer srv.Close()

	c := NewRetryingClient(newClient(srv, 0), fastRetry(), zerolog.Nop())
	data, err := c.FetchBytes(context.Background(), srv.URL+"/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryingClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRetryingClient(newClient(srv, 0), fastRetry(), zerolog.Nop())
	_, err := c.FetchProfile(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(&domain.RemoteFetchError{URL: "u", Err: errors.New("conn reset")}))
	assert.True(t, shouldRetry(&domain.RemoteFetchError{URL: "u", StatusCode: 500}))
	assert.True(t, shouldRetry(&domain.RemoteFetchError{URL: "u", StatusCode: 429}))
	assert.True(t, shouldRetry(&domain.RemoteFetchError{URL: "u", StatusCode: 408}))
	assert.False(t, shouldRetry(&domain.RemoteFetchError{URL: "u", StatusCode: 403}))
	assert.False(t, shouldRetry(&domain.RemoteFetchError{URL: "u", Err: ErrTooLarge}))
	assert.False(t, shouldRetry(context.Canceled))
}
