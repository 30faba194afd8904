package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryLeaseStore_Contract(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := memory.NewLeaseStore(memory.WithClock(clock.Now))
	ports.RunLeaseStoreContract(t, store, clock.Advance)
}

func TestMemoryLeaseStore_ConcurrentAcquire(t *testing.T) {
	store := memory.NewLeaseStore()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.TryAcquire(ctx, "WRITE#pi-1", 15*time.Second, "token")
			assert.NoError(t, err)
			if ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load(), "exactly one writer may hold the lease")
}

func TestMemoryLeaseStore_RefreshMissingIsNoop(t *testing.T) {
	store := memory.NewLeaseStore()
	require.NoError(t, store.Refresh(context.Background(), "READ#none", time.Second))
	_, found, err := store.Get(context.Background(), "READ#none")
	require.NoError(t, err)
	assert.False(t, found)
}
