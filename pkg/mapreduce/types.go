package mapreduce

import "context"

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Worker is one stage of a job: a map function over a chunk of input lines
// and a reduce function over every value emitted under a single key.
//
// Both functions must be pure with respect to their input. A task may be
// re-executed from scratch and the engine assumes the output is identical.
type Worker interface {
	Map(ctx context.Context, chunk []string, emit Emitter) error
	Reduce(ctx context.Context, key string, values []string, emit Emitter) error
	Description() string
}

type Emitter func(KeyValue)

// CombinableWorker is an optional interface for workers that can
// pre-aggregate a map task's output before it is partitioned.
//
// Unlike a plain Reduce, Combine must emit values in the same format Map
// emits, since its output is fed to Reduce alongside other tasks' output.
// Workers that do not implement it are not combined.
type CombinableWorker interface {
	Worker
	Combine(ctx context.Context, key string, values []string, emit Emitter) error
}

// Combiner returns the worker as a CombinableWorker when combining is
// enabled for it.
func Combiner(w Worker) (CombinableWorker, bool) {
	c, ok := w.(CombinableWorker)

	return c, ok
}

type uncombined struct {
	Worker
}

// WithoutCombiner hides w's Combine method, so its map output reaches
// Reduce as emitted.
func WithoutCombiner(w Worker) Worker {
	return uncombined{w}
}
