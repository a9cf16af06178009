package simpleredis

import (
	"errors"
	"slices"
	"testing"

	"github.com/ananthvk/simpleredis/internal/resp"
)

func TestBackendBasicTests(t *testing.T) {
	backend := NewBackend()

	// Test Set and Get
	value := resp.NewBulkString([]byte("testvalue"))
	backend.Set("testkey", value)

	got, err := backend.Get("testkey")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !resp.Equal(got, value) {
		t.Errorf("expected %v, got %v", value, got)
	}

	// Test Get non-existent key
	_, err = backend.Get("nonexistent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	// Test overwrite
	backend.Set("testkey", resp.Integer(7))
	got, _ = backend.Get("testkey")
	if !resp.Equal(got, resp.Integer(7)) {
		t.Errorf("expected overwritten value, got %v", got)
	}

	// Test Delete
	if n := backend.Delete("testkey", "nonexistent"); n != 1 {
		t.Errorf("expected 1 deleted key, got %d", n)
	}
	_, err = backend.Get("testkey")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestBackendKeys(t *testing.T) {
	backend := NewBackend(WithShardCount(4))
	backend.Set("key2", resp.Null{})
	backend.Set("key1", resp.Null{})
	backend.HSet("hash", "f", resp.Null{})
	// The same name in both namespaces is listed once.
	backend.HSet("key1", "f", resp.Null{})

	keys := backend.Keys()
	if !slices.Equal(keys, []string{"hash", "key1", "key2"}) {
		t.Errorf("unexpected keys %v", keys)
	}
	if backend.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", backend.Len())
	}

	if n := backend.Delete("key1"); n != 1 {
		t.Errorf("expected key1 to count once, got %d", n)
	}
	if _, err := backend.HGet("key1", "f"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected hash key1 to be deleted, got %v", err)
	}
}

func TestBackendHashes(t *testing.T) {
	backend := NewBackend()

	if _, err := backend.HGet("user", "name"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if !backend.HSet("user", "name", resp.NewBulkString([]byte("ada"))) {
		t.Errorf("expected first HSet to create the field")
	}
	if backend.HSet("user", "name", resp.NewBulkString([]byte("grace"))) {
		t.Errorf("expected second HSet to update the field")
	}
	backend.HSet("user", "age", resp.Integer(36))

	got, err := backend.HGet("user", "name")
	if err != nil {
		t.Fatalf("HGet failed: %v", err)
	}
	if !resp.Equal(got, resp.NewBulkString([]byte("grace"))) {
		t.Errorf("unexpected value %v", got)
	}
	if _, err := backend.HGet("user", "missing"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("expected ErrFieldNotFound, got %v", err)
	}

	all := backend.HGetAll("user")
	if len(all) != 2 || all[0].Field != "age" || all[1].Field != "name" {
		t.Errorf("unexpected HGetAll result %v", all)
	}

	// Hashes and plain keys are separate namespaces
	if _, err := backend.Get("user"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected hash to be invisible to Get, got %v", err)
	}

	if n := backend.HDel("user", "age", "missing"); n != 1 {
		t.Errorf("expected 1 deleted field, got %d", n)
	}
	if n := backend.HDel("user", "name"); n != 1 {
		t.Errorf("expected 1 deleted field, got %d", n)
	}
	if len(backend.Keys()) != 0 {
		t.Errorf("expected empty hash to be removed, keys %v", backend.Keys())
	}
	if all := backend.HGetAll("user"); len(all) != 0 {
		t.Errorf("expected no fields, got %v", all)
	}
	if n := backend.HDel("nothing", "f"); n != 0 {
		t.Errorf("expected 0 deleted fields, got %d", n)
	}
}
