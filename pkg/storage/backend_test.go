package storage

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

var testBucket = []byte("test")

func put(t *testing.T, backend Backend, bucket []byte, kvs ...string) {
	t.Helper()

	err := backend.Update(func(tx Transaction) error {
		if err := tx.CreateBucket(bucket); err != nil {
			return err
		}
		b := tx.Bucket(bucket)
		for i := 0; i+1 < len(kvs); i += 2 {
			if err := b.Put([]byte(kvs[i]), []byte(kvs[i+1])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
}

// get returns a copy of the value under key, or nil for a missing bucket or
// key.
func get(t *testing.T, backend Backend, bucket []byte, key string) []byte {
	t.Helper()

	var value []byte
	err := backend.View(func(tx Transaction) error {
		if b := tx.Bucket(bucket); b != nil {
			value = bytes.Clone(b.Get([]byte(key)))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	return value
}

func bucketNames(t *testing.T, backend Backend) []string {
	t.Helper()

	var names []string
	err := backend.View(func(tx Transaction) error {
		return tx.ForEachBucket(func(name []byte) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		t.Fatalf("ForEachBucket failed: %v", err)
	}

	return names
}

// backendTestSuite runs the same checks against any Backend implementation
func backendTestSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("CreateBucketIdempotent", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "k", "v")
		put(t, backend, testBucket)

		if got := get(t, backend, testBucket, "k"); string(got) != "v" {
			t.Errorf("re-creating a bucket lost its data: got %q", got)
		}
	})

	t.Run("DeleteBucketIdempotent", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "k", "v")

		for range 2 {
			err := backend.Update(func(tx Transaction) error {
				return tx.DeleteBucket(testBucket)
			})
			if err != nil {
				t.Fatalf("DeleteBucket failed: %v", err)
			}
		}

		if names := bucketNames(t, backend); len(names) != 0 {
			t.Errorf("buckets after delete = %v, want none", names)
		}
	})

	t.Run("PutAndGet", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "key1", "value1", "key1", "value2")

		if got := get(t, backend, testBucket, "key1"); string(got) != "value2" {
			t.Errorf("Get returned %q, want %q", got, "value2")
		}
		if got := get(t, backend, testBucket, "nonexistent"); got != nil {
			t.Errorf("Get should return nil for non-existent key, got %q", got)
		}
	})

	t.Run("MissingBucket", func(t *testing.T) {
		backend := newBackend(t)

		err := backend.View(func(tx Transaction) error {
			if tx.Bucket([]byte("missing")) != nil {
				t.Error("Bucket should be nil for a missing bucket")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "task_00000010", "c", "task_00000002", "b", "task_00000001", "a")

		var keys, values []string
		err := backend.View(func(tx Transaction) error {
			return tx.Bucket(testBucket).ForEach(func(k, v []byte) error {
				keys = append(keys, string(k))
				values = append(values, string(v))
				return nil
			})
		})
		if err != nil {
			t.Fatalf("ForEach failed: %v", err)
		}

		if want := []string{"task_00000001", "task_00000002", "task_00000010"}; !slices.Equal(keys, want) {
			t.Errorf("ForEach order = %v, want %v", keys, want)
		}
		if want := []string{"a", "b", "c"}; !slices.Equal(values, want) {
			t.Errorf("ForEach values = %v, want %v", values, want)
		}
	})

	t.Run("ViewIsReadOnly", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "k", "v")

		err := backend.View(func(tx Transaction) error {
			if err := tx.CreateBucket([]byte("other")); err == nil {
				t.Error("CreateBucket succeeded in a read-only transaction")
			}
			if err := tx.DeleteBucket(testBucket); err == nil {
				t.Error("DeleteBucket succeeded in a read-only transaction")
			}
			if err := tx.Bucket(testBucket).Put([]byte("k"), []byte("changed")); err == nil {
				t.Error("Put succeeded in a read-only transaction")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}

		if got := get(t, backend, testBucket, "k"); string(got) != "v" {
			t.Errorf("value changed through a read-only transaction: %q", got)
		}
	})

	t.Run("FailedUpdateRollsBack", func(t *testing.T) {
		backend := newBackend(t)

		put(t, backend, testBucket, "kept", "old")

		boom := errors.New("boom")
		err := backend.Update(func(tx Transaction) error {
			b := tx.Bucket(testBucket)
			if err := b.Put([]byte("kept"), []byte("new")); err != nil {
				return err
			}
			if err := b.Put([]byte("added"), []byte("x")); err != nil {
				return err
			}
			if err := tx.CreateBucket([]byte("created")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update error = %v, want %v", err, boom)
		}

		if got := get(t, backend, testBucket, "kept"); string(got) != "old" {
			t.Errorf("kept = %q after rollback, want %q", got, "old")
		}
		if got := get(t, backend, testBucket, "added"); got != nil {
			t.Errorf("added = %q after rollback, want nil", got)
		}
		if names := bucketNames(t, backend); !slices.Equal(names, []string{"test"}) {
			t.Errorf("buckets after rollback = %v, want [test]", names)
		}
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		backend := newBackend(t)

		for _, name := range []string{"stage_a_partition_00000", "stage_a_partition_00001", "stage_b_partition_00000", "meta"} {
			put(t, backend, []byte(name), "k", "v")
		}

		var deleted int
		err := backend.Update(func(tx Transaction) error {
			var err error
			deleted, err = DeletePrefix(tx, []byte("stage_a_"))
			return err
		})
		if err != nil {
			t.Fatalf("DeletePrefix failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("DeletePrefix removed %d buckets, want 2", deleted)
		}

		want := []string{"meta", "stage_b_partition_00000"}
		if names := bucketNames(t, backend); !slices.Equal(names, want) {
			t.Errorf("remaining buckets = %v, want %v", names, want)
		}

		err = backend.Update(func(tx Transaction) error {
			var err error
			deleted, err = DeletePrefix(tx, nil)
			return err
		})
		if err != nil || deleted != 2 {
			t.Errorf("DeletePrefix(nil) = %d, %v, want 2, nil", deleted, err)
		}
	})
}
