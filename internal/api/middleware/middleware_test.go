package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestIdMiddleware(t *testing.T) {
	var got string
	h := RequestIdMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-1", got)
	require.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, got)
	require.NotEqual(t, "req-1", got)

	require.Equal(t, "unknown", GetRequestID(context.Background()))
}

func TestLoggerAndRecoverMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestIdMiddleware(LoggerMiddleware(&logger)(RecoverMiddleware(&logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("nil cart")
		}),
	)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, buf.String(), "request panic")
	require.Contains(t, buf.String(), `"status":500`)
	require.Contains(t, buf.String(), `"url":"/api/v1/carts"`)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := zerolog.Nop()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	testCases := []struct {
		name    string
		limiter *fakeLimiter
		want    int
	}{
		{name: "allowed", limiter: &fakeLimiter{allow: true}, want: http.StatusNoContent},
		{name: "rejected", limiter: &fakeLimiter{allow: false}, want: http.StatusTooManyRequests},
		{name: "limiter down is allowed", limiter: &fakeLimiter{err: errors.New("redis down")}, want: http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil)
			req.RemoteAddr = "10.1.2.3:5555"
			rec := httptest.NewRecorder()
			NewRateLimitMiddleware("carts", tc.limiter, &logger)(next).ServeHTTP(rec, req)

			require.Equal(t, tc.want, rec.Code)
			require.Equal(t, []string{"carts:10.1.2.3"}, tc.limiter.keys)
			if tc.want == http.StatusTooManyRequests {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Equal(t, float64(429), body["code"])
			}
		})
	}
}
