package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRateStore) RateLimitKey(scope string) string { return "rl:" + scope }

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func loginRequest(email, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"hunter22"}`))
	req.RemoteAddr = remote
	return req
}

func TestAuthRateLimitBlocksAfterLimit(t *testing.T) {
	cases := []struct {
		name       string
		ipLimit    int
		emailLimit int
		requests   func(i int) *http.Request
		allowed    int
	}{
		{
			name:       "per email across addresses",
			emailLimit: 2,
			requests: func(i int) *http.Request {
				return loginRequest("nurse@clinic.org", "10.0.0."+string(rune('1'+i))+":4000")
			},
			allowed: 2,
		},
		{
			name:    "per ip across emails",
			ipLimit: 1,
			requests: func(i int) *http.Request {
				return loginRequest("user"+string(rune('a'+i))+"@clinic.org", "5.6.7.8:1234")
			},
			allowed: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy := NewAuthRateLimitPolicy("login", time.Minute, tc.ipLimit, tc.emailLimit)
			handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(okHandler))

			for i := 0; i <= tc.allowed; i++ {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, tc.requests(i))
				if i < tc.allowed {
					require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
					continue
				}
				require.Equal(t, http.StatusTooManyRequests, rec.Code)
				assert.Equal(t, "60", rec.Header().Get("Retry-After"))

				var payload struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
				assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
			}
		})
	}
}

func TestAuthRateLimitKeepsBodyForHandler(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 5, 5)
	var seen string
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("nurse@clinic.org", "1.2.3.4:5678"))
	assert.Contains(t, seen, `"email":"nurse@clinic.org"`)
}

func TestAuthRateLimitNeverStoresRawEmail(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy(" Login ", time.Minute, 0, 5)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(okHandler))

	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("Ana@Example.com", "1.2.3.4:5678"))
	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("ana@example.com ", "1.2.3.4:5678"))

	require.Len(t, store.counts, 1, "case and whitespace variants share a bucket")
	for key, count := range store.counts {
		assert.True(t, strings.HasPrefix(key, "rl:email:login:"), key)
		assert.NotContains(t, strings.ToLower(key), "ana@")
		assert.Equal(t, int64(2), count)
	}
}

func TestAuthRateLimitStoreFailure(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := AuthRateLimit(NewAuthRateLimitPolicy("register", time.Minute, 3, 0), store, nil)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("nurse@clinic.org", "1.2.3.4:5678"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), store, nil)(http.HandlerFunc(okHandler))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("nurse@clinic.org", "1.2.3.4:5678"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, store.counts)
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
