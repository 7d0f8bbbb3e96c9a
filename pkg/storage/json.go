package storage

import (
	"encoding/json"
	"fmt"
)

// JSONStore stores JSON-encoded records, one bucket per record type.
type JSONStore struct {
	backend Backend
}

func NewJSONStore(backend Backend) *JSONStore {
	return &JSONStore{backend: backend}
}

// PutJSON stores v under key, creating the bucket if needed.
func (j *JSONStore) PutJSON(bucket, key []byte, v any) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return err
	}

	return j.backend.Update(func(tx Transaction) error {
		if err := tx.CreateBucket(bucket); err != nil {
			return err
		}
		return tx.Bucket(bucket).Put(key, data)
	})
}

// GetJSON decodes the record under key into v. A missing bucket or key
// leaves v untouched and reports found == false.
func (j *JSONStore) GetJSON(bucket, key []byte, v any) (found bool, err error) {
	err = j.backend.View(func(tx Transaction) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		data := b.Get(key)
		if data == nil {
			return nil
		}
		found = true
		return DecodeJSON(data, v)
	})

	return found, err
}

// ListJSON decodes every record of a bucket, in key order. A missing bucket
// is empty.
func ListJSON[T any](j *JSONStore, bucket []byte) ([]*T, error) {
	var out []*T

	err := j.backend.View(func(tx Transaction) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, data []byte) error {
			v := new(T)
			if err := DecodeJSON(data, v); err != nil {
				return fmt.Errorf("record %s: %w", k, err)
			}
			out = append(out, v)
			return nil
		})
	})

	return out, err
}

func EncodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	return data, nil
}

func DecodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	return nil
}
