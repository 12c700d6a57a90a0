package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLockStore struct {
	values map[string]string
}

func (m *memLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memLockStore) DelIfValue(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memLockStore{values: map[string]string{}}
	a, err := NewRedisLock(store, "mt:lock:cron-worker:test", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "mt:lock:cron-worker:test", time.Minute)
	require.NoError(t, err)

	ok, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Release(context.Background()))
	assert.Len(t, store.values, 1, "a replica that never acquired must not free the lock")

	require.NoError(t, a.Release(context.Background()))
	ok, err = b.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseAfterExpiryKeepsNewOwner(t *testing.T) {
	store := &memLockStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "k", time.Second)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// TTL lapsed and another replica took over.
	store.values["k"] = "someone-else"

	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "someone-else", store.values["k"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Second)
	assert.Error(t, err)
	_, err = NewRedisLock(&memLockStore{}, "", time.Second)
	assert.Error(t, err)

	lock, err := NewRedisLock(&memLockStore{}, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
