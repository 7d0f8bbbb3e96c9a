package storage

import (
	"errors"
	"testing"
)

func TestMemoryBackend(t *testing.T) {
	backendTestSuite(t, func(t *testing.T) Backend {
		return NewMemoryBackend()
	})
}

func TestMemoryBackend_ValuesAreCopied(t *testing.T) {
	backend := NewMemoryBackend()

	value := []byte("abc")
	err := backend.Update(func(tx Transaction) error {
		if err := tx.CreateBucket(testBucket); err != nil {
			return err
		}
		return tx.Bucket(testBucket).Put([]byte("k"), value)
	})
	if err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'

	if got := get(t, backend, testBucket, "k"); string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}
}

func TestMemoryBackend_Closed(t *testing.T) {
	backend := NewMemoryBackend()
	put(t, backend, testBucket, "k", "v")

	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	noop := func(Transaction) error { return nil }
	if err := backend.Update(noop); !errors.Is(err, ErrClosed) {
		t.Errorf("Update after Close = %v, want ErrClosed", err)
	}
	if err := backend.View(noop); !errors.Is(err, ErrClosed) {
		t.Errorf("View after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryBackend_ReadOnlyError(t *testing.T) {
	backend := NewMemoryBackend()
	put(t, backend, testBucket)

	err := backend.View(func(tx Transaction) error {
		return tx.Bucket(testBucket).Put([]byte("k"), []byte("v"))
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("Put in View = %v, want ErrReadOnly", err)
	}
}
