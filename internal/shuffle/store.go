// Package shuffle spills partitioned map output between the map and reduce
// halves of a stage.
package shuffle

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
	"pkg.jsn.cam/friendrec/pkg/storage"
)

var (
	metaBucket       = []byte("meta")
	formatVersionKey = []byte("format_version")
)

// Store holds map task output, one bucket per stage partition and one key
// per map task within it. Rewriting a task's output replaces it, so a
// re-executed task never duplicates records.
type Store struct {
	backend storage.Backend
}

// Stats summarises the spill data of one stage.
type Stats struct {
	Partitions int
	KVs        int
	Bytes      uint64
}

// Open prepares backend for spilling. Buckets written under an incompatible
// format version are dropped.
func Open(backend storage.Backend) (*Store, error) {
	s := &Store{backend: backend}

	err := backend.Update(func(tx storage.Transaction) error {
		if meta := tx.Bucket(metaBucket); meta != nil {
			stored := string(meta.Get(formatVersionKey))
			ok, err := IsCompatibleVersion(stored, FormatVersion)
			if !ok {
				log.WithFields(log.Fields{
					"component": "shuffle",
					"stored":    stored,
					"current":   FormatVersion,
				}).Warnf("Discarding spill data written by incompatible version: %v", err)
				if _, err := storage.DeletePrefix(tx, nil); err != nil {
					return err
				}
			}
		}

		if err := tx.CreateBucket(metaBucket); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(formatVersionKey, []byte(FormatVersion))
	})
	if err != nil {
		return nil, fmt.Errorf("open spill store: %w", err)
	}

	return s, nil
}

func stagePrefix(stage string) []byte {
	return []byte("stage_" + stage + "_")
}

func partitionBucket(stage string, partition int) []byte {
	return fmt.Appendf(stagePrefix(stage), "partition_%05d", partition)
}

func taskKey(task int) []byte {
	return fmt.Appendf(nil, "task_%08d", task)
}

// StoreTaskOutput writes one map task's output for every partition it
// produced.
func (s *Store) StoreTaskOutput(stage string, task int, partitioned map[int][]mapreduce.KeyValue) error {
	return s.backend.Update(func(tx storage.Transaction) error {
		for partition, kvs := range partitioned {
			name := partitionBucket(stage, partition)
			if err := tx.CreateBucket(name); err != nil {
				return err
			}

			encoded, err := encodeKVs(kvs)
			if err != nil {
				return err
			}
			if err := tx.Bucket(name).Put(taskKey(task), encoded); err != nil {
				return fmt.Errorf("store partition %d: %w", partition, err)
			}
		}
		return nil
	})
}

// GetPartition returns every pair spilled to a partition, in task order. A
// partition nobody wrote to is empty.
func (s *Store) GetPartition(stage string, partition int) ([]mapreduce.KeyValue, error) {
	var result []mapreduce.KeyValue

	err := s.backend.View(func(tx storage.Transaction) error {
		b := tx.Bucket(partitionBucket(stage, partition))
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, v []byte) error {
			kvs, err := decodeKVs(v)
			if err != nil {
				return err
			}
			result = append(result, kvs...)
			return nil
		})
	})

	return result, err
}

// CleanupStage removes all spill data of a stage.
func (s *Store) CleanupStage(stage string) error {
	return s.backend.Update(func(tx storage.Transaction) error {
		n, err := storage.DeletePrefix(tx, stagePrefix(stage))
		if n > 0 {
			log.WithFields(log.Fields{"component": "shuffle", "stage": stage}).
				Debugf("Dropped %d spill partitions", n)
		}
		return err
	})
}

// Stats reports how much data a stage has spilled.
func (s *Store) Stats(stage string) (Stats, error) {
	var stats Stats

	err := s.backend.View(func(tx storage.Transaction) error {
		names, err := storage.BucketsWithPrefix(tx, stagePrefix(stage))
		if err != nil {
			return err
		}
		stats.Partitions = len(names)

		for _, name := range names {
			err := tx.Bucket(name).ForEach(func(_, v []byte) error {
				kvs, err := decodeKVs(v)
				if err != nil {
					return err
				}
				stats.KVs += len(kvs)
				stats.Bytes += uint64(len(v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return stats, err
}
