package cache

import (
	"testing"
	"time"
)

func TestSetGetAndExpire(t *testing.T) {
	c := New(0)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	key := KeyFromStrings("unit", "expire")

	if _, ok := c.Get(key); ok {
		t.Fatalf("expected no value initially")
	}

	c.Set(key, "hello", 50*time.Millisecond)
	if v, ok := c.GetString(key); !ok || v != "hello" {
		t.Fatalf("expected value 'hello', got %v ok=%v", v, ok)
	}

	now = now.Add(80 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected expired value to be gone")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, len=%d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New(0)
	key := KeyFromStrings("unit", "delete")
	c.Set(key, 42, time.Second)
	if v, ok := c.Get(key); !ok || v.(int) != 42 {
		t.Fatalf("expected 42 present before delete, got %v ok=%v", v, ok)
	}
	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected deleted value to be absent")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a") // a becomes most recent
	c.Set("c", 3, 0)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestPurgeExpired(t *testing.T) {
	c := New(0)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	c.Set("short", 1, time.Second)
	c.Set("forever", 2, 0)
	now = now.Add(2 * time.Second)
	c.purgeExpired()
	if c.Len() != 1 {
		t.Fatalf("expected only the non-expiring entry, len=%d", c.Len())
	}
}

func TestGetStringWrongType(t *testing.T) {
	c := New(0)
	c.Set("n", 7, 0)
	if _, ok := c.GetString("n"); ok {
		t.Fatalf("expected non-string value to miss")
	}
}

func TestKeyFromStringsStability(t *testing.T) {
	k1 := KeyFromStrings("a", "b", "c")
	k2 := KeyFromStrings("a", "b", "c")
	if k1 != k2 {
		t.Fatalf("expected same inputs to yield same key")
	}
	if k1 == KeyFromStrings("a", "b", "d") {
		t.Fatalf("expected different inputs to yield different key")
	}
	if KeyFromStrings("ab", "c") == KeyFromStrings("a", "bc") {
		t.Fatalf("expected part boundaries to matter")
	}
}
