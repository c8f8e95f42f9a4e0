package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/infrastructure/config"
)

func TestInMemoryStore_GetSet(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestInMemoryStore_Expiry(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", "v", time.Millisecond))
	require.NoError(t, s.Set(ctx, "forever", "v", 0))
	time.Sleep(10 * time.Millisecond)

	_, ok, _ := s.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)

	s.cleanup()
	assert.Equal(t, 1, s.Size())
}

func TestInMemoryStore_SetNX(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.SetNX(ctx, "lock", "1", time.Minute)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestInMemoryStore_Take(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "state", "user-1", time.Minute))
	val, ok, err := s.Take(ctx, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", val)

	_, ok, err = s.Take(ctx, "state")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryStore_DeletePrefix(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "access:u1:t1", "OWNER", 0))
	require.NoError(t, s.Set(ctx, "access:u2:t1", "VIEW", 0))
	require.NoError(t, s.Set(ctx, "oauth:state", "x", 0))

	removed, err := s.DeletePrefix(ctx, "access:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, s.Size())
}

func TestInMemoryStore_CloseTwice(t *testing.T) {
	s := NewInMemoryStore(time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestStoreFactory_WithoutRedis(t *testing.T) {
	store, err := NewStoreFactory(config.RedisConfig{}).CreateStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryStore{}, store)
}

func TestStoreFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	store, err := NewStoreFactory(cfg).CreateStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryStore{}, store)

	_, err = NewStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore()
	assert.Error(t, err)
}
