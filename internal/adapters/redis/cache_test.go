package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "heritage_explorer/internal/adapters/redis"
	"heritage_explorer/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var p domain.Place
	ok, err := c.Get(ctx, "place:hampi", &p)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "place:hampi", domain.Place{ID: "hampi", Name: "Hampi"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("heritage:place:hampi") {
		t.Fatalf("expected namespaced key in redis, keys=%v", mr.Keys())
	}

	ok, err = c.Get(ctx, "place:hampi", &p)
	if err != nil || !ok || p.Name != "Hampi" {
		t.Fatalf("expected hit, got ok=%v err=%v p=%+v", ok, err, p)
	}

	if err := c.Del(ctx, "place:hampi"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "place:hampi", &p); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "conversation:1", domain.Conversation{ID: "1"}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var conv domain.Conversation
	if ok, _ := c.Get(ctx, "conversation:1", &conv); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_Ping(t *testing.T) {
	c, mr := newCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error after server close")
	}
}

func TestCache_CorruptValue(t *testing.T) {
	c, mr := newCache(t)
	if err := mr.Set("heritage:place:hampi", "{not json"); err != nil {
		t.Fatal(err)
	}
	var p domain.Place
	ok, err := c.Get(context.Background(), "place:hampi", &p)
	if ok || err == nil {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}
