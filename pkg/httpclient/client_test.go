package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedSleep collects backoff delays instead of waiting them out.
func recordedSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRequestClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   Kind
	}{
		{"bad request", http.StatusBadRequest, KindInvalidRequest},
		{"unauthorized", http.StatusUnauthorized, KindAuthFailed},
		{"forbidden", http.StatusForbidden, KindForbidden},
		{"not found", http.StatusNotFound, KindNotFound},
		{"conflict", http.StatusConflict, KindConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			var delays []time.Duration
			client := New(srv.URL, Options{Sleep: recordedSleep(&delays)})

			_, err := client.Request(context.Background(), http.MethodGet, "/thing", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			// Definitive failures must not be retried.
			assert.Equal(t, 1, calls)
			assert.Empty(t, delays)
		})
	}
}

func TestRequestRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var delays []time.Duration
	client := New(srv.URL, Options{Name: "test", Sleep: recordedSleep(&delays)})

	_, err := client.Request(context.Background(), http.MethodGet, "/thing", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, 3, calls)
	// Linear backoff between attempts, none after the last.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRequestRecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"result":{"value":42}}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	client := New(srv.URL, Options{Sleep: recordedSleep(&delays)})

	body, err := client.Request(context.Background(), http.MethodGet, "/thing", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":42}`, string(body))
	assert.Equal(t, 3, calls)
}

func TestRequestHonorsRetryAfter(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	client := New(srv.URL, Options{Sleep: recordedSleep(&delays)})

	_, err := client.Request(context.Background(), http.MethodGet, "/thing", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, delays)
}

func TestRequestSendsHeadersAndQuery(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, Options{Headers: map[string]string{"x-api-key": "secret"}})

	query := url.Values{}
	query.Set("skip", "0")
	query.Set("limit", "500")
	_, err := client.Request(context.Background(), http.MethodGet, "/users", nil, query)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "limit=500&skip=0", gotQuery)
}

func TestRequestCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New(srv.URL, Options{Sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}})

	_, err := client.Request(ctx, http.MethodGet, "/thing", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnwrapResult(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(UnwrapResult([]byte(`{"result":{"a":1}}`))))
	assert.Equal(t, `{"a":1}`, string(UnwrapResult([]byte(`{"a":1}`))))
	assert.Equal(t, "not json", string(UnwrapResult([]byte("not json"))))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(assert.AnError))
	assert.True(t, IsRetryable(NewError(KindInternal, "boom")))
	assert.True(t, IsRetryable(NewError(KindRateLimited, "slow down")))
	assert.False(t, IsRetryable(NewError(KindNotFound, "gone")))
	assert.False(t, IsRetryable(NewError(KindValidation, "bad payload")))
}
