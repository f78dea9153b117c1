package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	if value, ok := c.Get("a"); !ok || value != 1 {
		t.Fatalf("get = %d/%v, want 1/true", value, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected deleted entry to miss")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 0)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("zero ttl entry should persist")
	}
}
