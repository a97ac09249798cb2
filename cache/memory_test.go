package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var out string
	if ok, err := m.Get(ctx, "missing", &out); err != nil || ok {
		t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatal(err)
	}

	if ok, err := m.Get(ctx, "key", &out); err != nil || !ok || out != "value" {
		t.Fatalf("expected a hit with %q, got ok=%v out=%q err=%v", "value", ok, out, err)
	}

	if err := m.Delete(ctx, "key"); err != nil {
		t.Fatal(err)
	}

	if ok, _ := m.Get(ctx, "key", &out); ok {
		t.Fatal("expected a miss after delete")
	}
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	// Entries survive the sweeper; only the janitor stops.
	if err := m.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatal(err)
	}

	var out string
	if ok, err := m.Get(ctx, "key", &out); err != nil || !ok || out != "value" {
		t.Fatalf("expected a hit after close, got ok=%v out=%q err=%v", ok, out, err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "key", 1, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	var out int
	if ok, _ := m.Get(ctx, "key", &out); ok {
		t.Fatal("expected the entry to expire")
	}
}
