package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := NewMemory()

	c.Set("key", []byte(`{"a":1}`), time.Minute)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `{"a":1}` {
		t.Errorf("value = %q, want %q", got, `{"a":1}`)
	}
}

func TestGetMissing(t *testing.T) {
	c := NewMemory()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected cache miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	c := NewMemory()

	c.Set("key", []byte("value"), 20*time.Millisecond)

	if _, ok := c.Get("key"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestDelete(t *testing.T) {
	c := NewMemory()

	c.Set("key", []byte("value"), time.Minute)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("expected miss after delete")
	}

	// Deleting again is a no-op.
	c.Delete("key")
}

func TestOverwrite(t *testing.T) {
	c := NewMemory()

	c.Set("key", []byte("old"), time.Minute)
	c.Set("key", []byte("new"), time.Minute)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "new" {
		t.Errorf("value = %q, want %q", got, "new")
	}
}

func TestNonPositiveTTL(t *testing.T) {
	c := NewMemory()

	c.Set("key", []byte("value"), 0)

	if _, ok := c.Get("key"); ok {
		t.Error("expected nothing stored for zero ttl")
	}
}
