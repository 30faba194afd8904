package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fangliji/flowable-engine/pkg/adapters/redis"
	"github.com/fangliji/flowable-engine/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaseStore(t *testing.T) (*redis.LeaseStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewLeaseStore(client, "test:"), mr
}

func TestRedisLeaseStore_Contract(t *testing.T) {
	store, mr := newLeaseStore(t)
	ports.RunLeaseStoreContract(t, store, mr.FastForward)
}

func TestRedisLeaseStore_KeyLayout(t *testing.T) {
	store, mr := newLeaseStore(t)
	ctx := context.Background()

	ok, err := store.TryAcquire(ctx, "WRITE#pi-1", 15*time.Second, "tok")
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, mr.Exists("test:WRITE#pi-1"))
	val, err := mr.Get("test:WRITE#pi-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", val)
	assert.Equal(t, 15*time.Second, mr.TTL("test:WRITE#pi-1"))
}

func TestRedisLeaseStore_ConcurrentWriters(t *testing.T) {
	store, _ := newLeaseStore(t)
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.TryAcquire(ctx, "WRITE#pi-1", 15*time.Second, "writer")
			assert.NoError(t, err)
			if ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
