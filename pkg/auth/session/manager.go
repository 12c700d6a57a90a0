// Package session tracks login sessions in Redis. A session is keyed by the
// access token's jti and remembers its owner plus a digest of the refresh
// token that may be exchanged for the next pair.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/redis"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errBlankAccessID       = errors.New("access id is required")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read-only view the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager requires the refresh lifetime to outlast the access token.
func NewManager(client *redis.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	refresh := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if refresh <= access {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refresh, access)
	}
	return &Manager{store: client, ttl: refresh}, nil
}

// Create opens a session and returns the plaintext refresh token. Only its
// digest is stored.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	key, err := m.key(accessID)
	if err != nil {
		return "", err
	}
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	if err := m.store.Set(ctx, key, record{userID: userID, digest: digest(token)}.String(), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate exchanges a refresh token for a new session. The old session is
// claimed with a compare-and-delete so a token replayed concurrently rotates
// at most once.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, presented string) (userID uuid.UUID, accessID, token string, err error) {
	key, kerr := m.key(oldAccessID)
	if kerr != nil || strings.TrimSpace(presented) == "" {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return uuid.Nil, "", "", err
	}
	rec, ok := parseRecord(raw)
	if !ok || subtle.ConstantTimeCompare([]byte(rec.digest), []byte(digest(presented))) != 1 {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}
	claimed, err := m.store.DelIfValue(ctx, key, raw)
	if err != nil {
		return uuid.Nil, "", "", err
	}
	if !claimed {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}

	accessID = NewAccessID()
	token, err = m.Create(ctx, rec.userID, accessID)
	if err != nil {
		return uuid.Nil, "", "", err
	}
	return rec.userID, accessID, token, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, key)
	switch {
	case errors.Is(err, goredis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// NewAccessID mints the jti shared by the access token and its session key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) key(accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errBlankAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

type record struct {
	userID uuid.UUID
	digest string
}

func (r record) String() string {
	return r.userID.String() + ":" + r.digest
}

func parseRecord(raw string) (record, bool) {
	id, sum, ok := strings.Cut(raw, ":")
	if !ok || len(sum) != sha256.Size*2 {
		return record{}, false
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return record{}, false
	}
	return record{userID: userID, digest: sum}, true
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
