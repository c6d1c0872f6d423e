package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestSetIdempotency_NewKey(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	key := "movement:" + uuid.NewString()
	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected new key to be claimed")
	}

	// Cleanup
	client.Del(ctx, "idempotency:"+key)
}

func TestSetIdempotency_DuplicateKey(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	key := "movement:" + uuid.NewString()
	if _, err := adapter.SetIdempotency(ctx, key); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected duplicate key to be rejected")
	}

	client.Del(ctx, "idempotency:"+key)
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	key := "movement:" + uuid.NewString()

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, key)
			if err == nil && ok {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	if claimed.Load() != 1 {
		t.Errorf("expected exactly one claim, got %d", claimed.Load())
	}

	client.Del(ctx, "idempotency:"+key)
}
