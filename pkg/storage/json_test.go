package storage

import (
	"testing"
)

type testRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestJSONStore(t *testing.T) {
	t.Run("PutAndGetJSON", func(t *testing.T) {
		store := NewJSONStore(NewMemoryBackend())

		want := testRecord{Name: "job", Value: 42}
		if err := store.PutJSON(testBucket, []byte("key1"), want); err != nil {
			t.Fatalf("PutJSON failed: %v", err)
		}

		var got testRecord
		found, err := store.GetJSON(testBucket, []byte("key1"), &got)
		if err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
		if !found {
			t.Fatal("GetJSON reported key1 missing")
		}
		if got != want {
			t.Errorf("Got %+v, want %+v", got, want)
		}
	})

	t.Run("GetJSONMissing", func(t *testing.T) {
		backend := NewMemoryBackend()
		store := NewJSONStore(backend)

		var got testRecord
		for _, stage := range []string{"missing bucket", "missing key"} {
			found, err := store.GetJSON(testBucket, []byte("nonexistent"), &got)
			if err != nil {
				t.Errorf("%s: GetJSON error: %v", stage, err)
			}
			if found {
				t.Errorf("%s: GetJSON reported a missing record as found", stage)
			}
			put(t, backend, testBucket)
		}
		if got != (testRecord{}) {
			t.Errorf("Got %+v, want zero value", got)
		}
	})

	t.Run("ListJSON", func(t *testing.T) {
		store := NewJSONStore(NewMemoryBackend())

		empty, err := ListJSON[testRecord](store, testBucket)
		if err != nil || len(empty) != 0 {
			t.Errorf("ListJSON on missing bucket = %v, %v", empty, err)
		}

		store.PutJSON(testBucket, []byte("b"), testRecord{Name: "b", Value: 2})
		store.PutJSON(testBucket, []byte("a"), testRecord{Name: "a", Value: 1})

		records, err := ListJSON[testRecord](store, testBucket)
		if err != nil {
			t.Fatalf("ListJSON failed: %v", err)
		}
		if len(records) != 2 || records[0].Name != "a" || records[1].Name != "b" {
			t.Errorf("ListJSON = %+v, want [a b]", records)
		}
	})

	t.Run("ListJSONCorrupt", func(t *testing.T) {
		backend := NewMemoryBackend()
		put(t, backend, testBucket, "bad", "{")

		if _, err := ListJSON[testRecord](NewJSONStore(backend), testBucket); err == nil {
			t.Error("ListJSON should fail on a corrupt record")
		}
	})
}

func TestEncodeDecodeJSON(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		want := testRecord{Name: "test", Value: 42}
		data, err := EncodeJSON(want)
		if err != nil {
			t.Fatalf("EncodeJSON failed: %v", err)
		}

		var got testRecord
		if err := DecodeJSON(data, &got); err != nil {
			t.Fatalf("DecodeJSON failed: %v", err)
		}
		if got != want {
			t.Errorf("Got %+v, want %+v", got, want)
		}
	})

	t.Run("DecodeJSONInvalidData", func(t *testing.T) {
		var got testRecord
		if err := DecodeJSON([]byte("invalid json"), &got); err == nil {
			t.Error("DecodeJSON should fail for invalid JSON")
		}
	})

	t.Run("EncodeJSONUnsupported", func(t *testing.T) {
		if _, err := EncodeJSON(make(chan int)); err == nil {
			t.Error("EncodeJSON should fail for a channel")
		}
	})
}
