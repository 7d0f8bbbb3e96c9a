// Package storage provides the bucketed key-value store that holds shuffle
// spill data and job records.
package storage

import (
	"bytes"
	"errors"
)

var (
	ErrReadOnly = errors.New("write in read-only transaction")
	ErrClosed   = errors.New("storage is closed")
)

// Backend is a transactional key-value store organised in named buckets.
// Update transactions run one at a time and are rolled back if fn returns an
// error; View transactions are read-only and may run concurrently.
type Backend interface {
	Update(fn func(tx Transaction) error) error
	View(fn func(tx Transaction) error) error
	Close() error
}

type Transaction interface {
	// CreateBucket is a no-op for an existing bucket.
	CreateBucket(name []byte) error
	// DeleteBucket is a no-op for a missing bucket.
	DeleteBucket(name []byte) error
	// Bucket returns nil if the bucket does not exist.
	Bucket(name []byte) Bucket
	// ForEachBucket visits bucket names in ascending order. fn must not
	// create or delete buckets.
	ForEachBucket(fn func(name []byte) error) error
}

// Bucket is a single bucket within a transaction. Slices returned by Get or
// passed to ForEach are only valid until the transaction ends, and ForEach
// visits keys in ascending order.
type Bucket interface {
	Put(key, value []byte) error
	Get(key []byte) []byte
	ForEach(fn func(k, v []byte) error) error
}

// BucketsWithPrefix returns a copy of every bucket name starting with prefix.
// A nil prefix matches every bucket.
func BucketsWithPrefix(tx Transaction, prefix []byte) ([][]byte, error) {
	var names [][]byte

	err := tx.ForEachBucket(func(name []byte) error {
		if bytes.HasPrefix(name, prefix) {
			names = append(names, bytes.Clone(name))
		}
		return nil
	})

	return names, err
}

// DeletePrefix drops every bucket whose name starts with prefix and returns
// how many were dropped.
func DeletePrefix(tx Transaction, prefix []byte) (int, error) {
	names, err := BucketsWithPrefix(tx, prefix)
	if err != nil {
		return 0, err
	}

	for i, name := range names {
		if err := tx.DeleteBucket(name); err != nil {
			return i, err
		}
	}

	return len(names), nil
}
