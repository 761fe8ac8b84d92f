package rediskv

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestSetGetAgainstLiveRedis(t *testing.T) {
	addr := os.Getenv("LAUNDROMAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set LAUNDROMAT_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	s := New(addr, "", 0)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	key := fmt.Sprintf("laundromat_it_%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = s.client.Del(ctx, key).Err() })

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, key, []byte(`{"seeded":true}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || string(got) != `{"seeded":true}` {
		t.Fatalf("unexpected get: %s ok=%v err=%v", got, ok, err)
	}
}
