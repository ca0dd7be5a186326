package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.SnapshotKey("demo.myshopify.com", "123")
	if err := client.Set(ctx, key, `{"title":"Widget"}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `{"title":"Widget"}` {
		t.Fatalf("unexpected cached value %q", got)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !IsMiss(err) {
		t.Fatalf("expected cache miss after delete, got %v", err)
	}
}

func TestSyncLock(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	acquired, err := client.AcquireSyncLock(ctx, "demo.myshopify.com", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !acquired {
		t.Fatalf("expected first acquire to succeed")
	}

	acquired, err = client.AcquireSyncLock(ctx, "demo.myshopify.com", time.Second)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if acquired {
		t.Fatalf("expected lock to already be held")
	}

	if err := client.ReleaseSyncLock(ctx, "demo.myshopify.com"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	acquired, err = client.AcquireSyncLock(ctx, "demo.myshopify.com", time.Second)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	if !acquired {
		t.Fatalf("expected lock to be free after release")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SnapshotKey("demo.myshopify.com", "42"); got != "bxgy:snapshot:demo.myshopify.com:42" {
		t.Fatalf("unexpected snapshot key %s", got)
	}
	if got := client.SyncLockKey("demo.myshopify.com"); got != "bxgy:lock:sync:demo.myshopify.com" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.SnapshotKey("demo.myshopify.com", ""); got != "bxgy:snapshot:demo.myshopify.com" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
