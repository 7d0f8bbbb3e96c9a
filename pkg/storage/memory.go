package storage

import (
	"bytes"
	"slices"
	"sync"
)

// MemoryBackend keeps buckets in maps. It follows the bbolt transaction
// model: Update holds the write lock for the whole transaction and undoes
// its writes if fn fails, View holds the read lock and rejects writes.
type MemoryBackend struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets: make(map[string]map[string][]byte),
	}
}

func (m *MemoryBackend) Update(fn func(tx Transaction) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	tx := &memoryTx{backend: m, writable: true}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	return nil
}

func (m *MemoryBackend) View(fn func(tx Transaction) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	return fn(&memoryTx{backend: m})
}

// Close drops all data.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.buckets = nil

	return nil
}

type memoryTx struct {
	backend  *MemoryBackend
	writable bool
	undo     []func()
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) CreateBucket(name []byte) error {
	if !t.writable {
		return ErrReadOnly
	}

	key := string(name)
	if _, exists := t.backend.buckets[key]; exists {
		return nil
	}

	t.backend.buckets[key] = make(map[string][]byte)
	t.undo = append(t.undo, func() { delete(t.backend.buckets, key) })

	return nil
}

func (t *memoryTx) DeleteBucket(name []byte) error {
	if !t.writable {
		return ErrReadOnly
	}

	key := string(name)
	old, exists := t.backend.buckets[key]
	if !exists {
		return nil
	}

	delete(t.backend.buckets, key)
	t.undo = append(t.undo, func() { t.backend.buckets[key] = old })

	return nil
}

func (t *memoryTx) Bucket(name []byte) Bucket {
	data, exists := t.backend.buckets[string(name)]
	if !exists {
		return nil
	}

	return &memoryBucket{tx: t, data: data}
}

func (t *memoryTx) ForEachBucket(fn func(name []byte) error) error {
	for _, name := range sortedNames(t.backend.buckets) {
		if err := fn([]byte(name)); err != nil {
			return err
		}
	}

	return nil
}

type memoryBucket struct {
	tx   *memoryTx
	data map[string][]byte
}

// Put stores a copy of value.
func (b *memoryBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return ErrReadOnly
	}

	k := string(key)
	old, existed := b.data[k]
	b.data[k] = bytes.Clone(value)
	b.tx.undo = append(b.tx.undo, func() {
		if existed {
			b.data[k] = old
		} else {
			delete(b.data, k)
		}
	})

	return nil
}

func (b *memoryBucket) Get(key []byte) []byte {
	return b.data[string(key)]
}

func (b *memoryBucket) ForEach(fn func(k, v []byte) error) error {
	for _, k := range sortedNames(b.data) {
		if err := fn([]byte(k), b.data[k]); err != nil {
			return err
		}
	}

	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
