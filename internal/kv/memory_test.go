package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_GetSet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get missing key error = %v, want ErrKeyNotFound", err)
	}

	if err := store.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != `{"a":1}` {
		t.Errorf("value = %s, want {\"a\":1}", value)
	}

	// Overwrite
	if err := store.Set(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, _ = store.Get(ctx, "k")
	if string(value) != `{"a":2}` {
		t.Errorf("value after overwrite = %s, want {\"a\":2}", value)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"))
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete error = %v, want ErrKeyNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete absent key error = %v, want nil", err)
	}
}

func TestMemoryStore_GetByPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "application:u1", []byte("1"))
	store.Set(ctx, "application:u2", []byte("2"))
	store.Set(ctx, "applications:pending", []byte("advisory"))
	store.Set(ctx, "user:u1", []byte("x"))

	values, err := store.GetByPrefix(ctx, "application:")
	if err != nil {
		t.Fatalf("GetByPrefix failed: %v", err)
	}
	if len(values) != 2 {
		t.Errorf("len(values) = %d, want 2 (the advisory list key must not match)", len(values))
	}

	values, err = store.GetByPrefix(ctx, "nothing:")
	if err != nil {
		t.Fatalf("GetByPrefix failed: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("len(values) = %d, want 0", len(values))
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("value")
	store.Set(ctx, "k", original)
	original[0] = 'X'

	value, _ := store.Get(ctx, "k")
	if string(value) != "value" {
		t.Errorf("stored value mutated by caller: %s", value)
	}
}
