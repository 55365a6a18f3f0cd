package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	s.Set(ctx, "deck:abc", "Shadow Reef")

	value, ok := s.Get(ctx, "deck:abc")
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if value != "Shadow Reef" {
		t.Fatalf("Get() = %v, want Shadow Reef", value)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(time.Millisecond)
	ctx := context.Background()

	s.Set(ctx, "deck:abc", "Shadow Reef")
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Get(ctx, "deck:abc"); ok {
		t.Fatal("Get() hit after TTL elapsed")
	}
}

func TestStoreGetOrLoadCollapsesConcurrentLoads(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	var loads atomic.Int64
	release := make(chan struct{})
	loader := func(context.Context) (any, error) {
		loads.Add(1)
		<-release
		return "loaded", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := s.GetOrLoad(ctx, "deck:abc", loader)
			if err != nil {
				t.Errorf("GetOrLoad() error: %v", err)
				return
			}
			if value != "loaded" {
				t.Errorf("GetOrLoad() = %v, want loaded", value)
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStoreGetOrLoadPropagatesError(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	wantErr := fmt.Errorf("catalog unavailable")
	_, err := s.GetOrLoad(ctx, "deck:abc", func(context.Context) (any, error) {
		return nil, wantErr
	})
	if err == nil {
		t.Fatal("GetOrLoad() error = nil, want catalog unavailable")
	}

	if _, ok := s.Get(ctx, "deck:abc"); ok {
		t.Fatal("failed load must not populate the cache")
	}
}
