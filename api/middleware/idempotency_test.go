package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func createProductRequest(userID uuid.UUID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req.WithContext(WithUserID(req.Context(), userID))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		ok     bool
	}{
		{"create product", http.MethodPost, "/api/v1/products", true},
		{"create product trailing slash", http.MethodPost, "/api/v1/products/", true},
		{"upload image", http.MethodPost, "/api/v1/images", true},
		{"subscribe", http.MethodPost, "/api/v1/notifications/subscriptions", true},
		{"mark read", http.MethodPost, "/api/v1/alerts/9f1c/read", true},
		{"check product", http.MethodPost, "/api/v1/products/9f1c/check", false},
		{"list products", http.MethodGet, "/api/v1/products", false},
		{"login", http.MethodPost, "/api/v1/auth/login", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := routeTTL(tt.method, tt.path)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, createProductRequest(uuid.New(), "", `{"name":"Amoxicillin"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1"}}`))
	}))
	userID := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, createProductRequest(userID, "abc", `{"name":"Amoxicillin"}`))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotentReplayHeader))

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, createProductRequest(userID, "abc", `{"name":"Amoxicillin"}`))
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get(IdempotentReplayHeader))
	assert.JSONEq(t, `{"success":true,"data":{"id":"p1"}}`, replay.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), createProductRequest(uuid.New(), "same", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), createProductRequest(uuid.New(), "same", `{}`))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store := newFakeStore()
	status := http.StatusBadRequest
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	userID := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), createProductRequest(userID, "k1", `{}`))
	assert.Empty(t, store.data, "failed responses must not be remembered")

	status = http.StatusCreated
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, createProductRequest(userID, "k1", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.data, 1)
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	userID := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), createProductRequest(userID, "xyz", `{"name":"Insulin"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, createProductRequest(userID, "xyz", `{"name":"Insulin glargine"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec))
}

func TestIdempotencyRejectsRetryWhileInFlight(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	var inner *httptest.ResponseRecorder

	var handler http.Handler
	handler = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, createProductRequest(userID, "dup", `{}`))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, createProductRequest(userID, "dup", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, inner)
	assert.Equal(t, http.StatusUnprocessableEntity, inner.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), errorCode(t, inner))
}
