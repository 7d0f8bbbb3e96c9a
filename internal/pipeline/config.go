package pipeline

import (
	"fmt"
	"runtime"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
)

const (
	DefaultPartitions      = 4
	DefaultChunkSize       = 10000
	DefaultIntermediateDir = "intermediate_output"
)

// Config holds pipeline configuration. Zero values select defaults.
type Config struct {
	Parallelism     int    // Concurrent map or reduce tasks (default: NumCPU)
	Partitions      int    // Reduce partitions, and part files, per stage
	ChunkSize       int    // Input lines per map task
	IntermediateDir string // Location of the stage 1 output, cleared on every run
	SpillPath       string // bbolt file for shuffle spill and job records (empty = in memory)
	KeepSpill       bool   // Keep spill buckets after a stage completes
	NoCombine       bool   // Skip map-side combining
}

func (c Config) withDefaults() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.Partitions == 0 {
		c.Partitions = DefaultPartitions
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.IntermediateDir == "" {
		c.IntermediateDir = DefaultIntermediateDir
	}
	return c
}

func (c Config) validate() error {
	if c.Partitions < 0 {
		return fmt.Errorf("%w: %d", mapreduce.ErrInvalidPartitions, c.Partitions)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: %d", mapreduce.ErrInvalidChunkSize, c.ChunkSize)
	}
	return nil
}
