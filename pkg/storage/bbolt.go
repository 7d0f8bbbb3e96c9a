package storage

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BboltBackend keeps every bucket in one bbolt file.
type BboltBackend struct {
	db *bolt.DB
}

// NewBboltBackend opens (or creates) a bbolt database at dbPath. With
// throwaway set, commits skip fsync and the freelist is not persisted; use
// it for data that is rebuilt on every run anyway.
func NewBboltBackend(dbPath string, throwaway bool) (*BboltBackend, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout:        time.Second,
		NoSync:         throwaway,
		NoFreelistSync: throwaway,
		FreelistType:   bolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database %s: %w", dbPath, err)
	}

	return &BboltBackend{db: db}, nil
}

func (b *BboltBackend) Update(fn func(tx Transaction) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTx{tx})
	})
}

func (b *BboltBackend) View(fn func(tx Transaction) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(boltTx{tx})
	})
}

func (b *BboltBackend) Close() error {
	return b.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t boltTx) CreateBucket(name []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	_, err := t.tx.CreateBucketIfNotExists(name)
	return err
}

func (t boltTx) DeleteBucket(name []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	if err := t.tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return err
	}
	return nil
}

// Bucket hands out the bbolt bucket itself; it already satisfies Bucket.
func (t boltTx) Bucket(name []byte) Bucket {
	if bkt := t.tx.Bucket(name); bkt != nil {
		return bkt
	}
	return nil
}

func (t boltTx) ForEachBucket(fn func(name []byte) error) error {
	return t.tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
		return fn(name)
	})
}
