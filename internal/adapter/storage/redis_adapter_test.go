package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAdapter(client, time.Hour), mr
}

func TestCreateSession(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	id, err := adapter.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.True(t, mr.Exists(sessionKey(id)))
	assert.Equal(t, time.Hour, mr.TTL(sessionKey(id)))

	ok, err := adapter.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SessionExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	id, err := adapter.CreateSession(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	ok, err := adapter.SessionExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCustomer(t *testing.T) {
	adapter, _ := newTestRedis(t)
	ctx := context.Background()
	id, _ := adapter.CreateSession(ctx)

	_, ok, err := adapter.CustomerID(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.SetCustomerID(ctx, id, 42))
	cid, ok, err := adapter.CustomerID(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), cid)

	require.NoError(t, adapter.ClearCustomerID(ctx, id))
	_, ok, err = adapter.CustomerID(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddToCart_Success(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	total, ok, err := adapter.AddToCart(ctx, "s1", 7, 2, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, total)

	total, ok, err = adapter.AddToCart(ctx, "s1", 7, 3, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, total)

	assert.Equal(t, "5", mr.HGet(cartKey("s1"), "7"))
	assert.Equal(t, time.Hour, mr.TTL(cartKey("s1")))
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	_, _, err := adapter.AddToCart(ctx, "s1", 7, 2, 3)
	require.NoError(t, err)

	total, ok, err := adapter.AddToCart(ctx, "s1", 7, 2, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 4, total)

	// Verify quantity unchanged
	assert.Equal(t, "2", mr.HGet(cartKey("s1"), "7"))
}

func TestAddToCart_Concurrent(t *testing.T) {
	adapter, _ := newTestRedis(t)
	ctx := context.Background()

	stock := 20
	totalRequests := 50

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := adapter.AddToCart(ctx, "s1", 1, 1, stock)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stock), successCount.Load())

	cart, err := adapter.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, stock, cart[1])
}

func TestCartMutations(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.SetCartItem(ctx, "s1", 1, 3))
	require.NoError(t, adapter.SetCartItem(ctx, "s1", 2, 1))

	cart, err := adapter.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 3, 2: 1}, map[int64]int(cart))

	require.NoError(t, adapter.RemoveCartItem(ctx, "s1", 1))
	cart, err = adapter.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cart, 1)

	require.NoError(t, adapter.ClearCart(ctx, "s1"))
	assert.False(t, mr.Exists(cartKey("s1")))

	cart, err = adapter.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCart_IgnoresMalformedFields(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	mr.HSet(cartKey("s1"), "1", "2")
	mr.HSet(cartKey("s1"), "abc", "2")
	mr.HSet(cartKey("s1"), "3", "zero")

	cart, err := adapter.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 2}, map[int64]int(cart))
}

func TestChargeLock(t *testing.T) {
	adapter, mr := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.AcquireChargeLock(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.AcquireChargeLock(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.ReleaseChargeLock(ctx, 9))
	ok, err = adapter.AcquireChargeLock(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(chargeLockTTL + time.Second)
	ok, err = adapter.AcquireChargeLock(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok, "lock expires on its own")
}

func TestChargeLock_Concurrent(t *testing.T) {
	adapter, _ := newTestRedis(t)
	ctx := context.Background()

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.AcquireChargeLock(ctx, 1)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	// Only one should succeed
	assert.Equal(t, int32(1), successCount.Load())
}
