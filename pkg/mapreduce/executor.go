package mapreduce

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

/*
1. Chunk: input files -> batches of lines.
2. Map: each chunk -> one task -> emits (key, value) pairs, combined locally.
3. Partition: task output is split by key hash and handed to a sink.
4. Shuffle: a partition's pairs are grouped by key.
5. Reduce: each key -> [values] -> results.
*/

// maxLineSize bounds a single input line. Adjacency lines of very popular
// users can be long.
const maxLineSize = 16 * 1024 * 1024

// InputFiles resolves a job input path. A regular file is returned as is; a
// directory yields its regular files in name order, skipping names starting
// with "_" or "." (markers such as _SUCCESS).
func InputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoInput, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)

	return files, nil
}

// Chunk reads every line of files, in order, and sends them to out in
// batches of at most chunkSize lines. out is always closed on return.
func Chunk(ctx context.Context, files []string, chunkSize int, out chan<- []string) error {
	defer close(out)

	if chunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}

	var chunk []string
	send := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- chunk:
			chunk = nil
			return nil
		}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			chunk = append(chunk, scanner.Text())
			if len(chunk) >= chunkSize {
				if err := send(); err != nil {
					file.Close()
					return err
				}
			}
		}
		err = scanner.Err()
		file.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}

	if len(chunk) > 0 {
		return send()
	}

	return nil
}

// MapChunk runs one map task: Map over the chunk followed by the worker's
// combiner, if it has one.
func MapChunk(ctx context.Context, chunk []string, worker Worker) ([]KeyValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var emitted []KeyValue
	err := worker.Map(ctx, chunk, func(kv KeyValue) {
		emitted = append(emitted, kv)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMap, err)
	}

	if combiner, ok := Combiner(worker); ok {
		return CombinePhase(ctx, emitted, combiner)
	}

	return emitted, nil
}

// MapPhase runs a map task per chunk with at most parallelism tasks in
// flight. sink receives each task's output along with its sequence number
// and may be called concurrently. The first failure cancels the remaining
// tasks.
func MapPhase(
	ctx context.Context,
	chunks <-chan []string,
	worker Worker,
	parallelism int,
	sink func(task int, kvs []KeyValue) error,
) error {
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	task := 0
	for chunk := range chunks {
		if gctx.Err() != nil {
			break
		}

		id := task
		task++
		g.Go(func() error {
			kvs, err := MapChunk(gctx, chunk, worker)
			if err != nil {
				return fmt.Errorf("map task %d: %w", id, err)
			}

			return sink(id, kvs)
		})
	}

	return g.Wait()
}

// CombinePhase groups one map task's output by key and runs the combiner
// over every group.
func CombinePhase(ctx context.Context, pairs []KeyValue, worker CombinableWorker) ([]KeyValue, error) {
	groups := Shuffle(pairs)

	var combined []KeyValue
	emit := func(kv KeyValue) {
		combined = append(combined, kv)
	}

	for _, key := range sortedKeys(groups) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := worker.Combine(ctx, key, groups[key], emit); err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrCombine, key, err)
		}
	}

	return combined, nil
}

func Shuffle(pairs []KeyValue) map[string][]string {
	grouped := make(map[string][]string)
	for _, kv := range pairs {
		grouped[kv.Key] = append(grouped[kv.Key], kv.Value)
	}

	return grouped
}

// ReducePhase reduces every group in ascending key order.
func ReducePhase(ctx context.Context, groups map[string][]string, worker Worker) ([]KeyValue, error) {
	var results []KeyValue
	emit := func(kv KeyValue) {
		results = append(results, kv)
	}

	for _, key := range sortedKeys(groups) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := worker.Reduce(ctx, key, groups[key], emit); err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrReduce, key, err)
		}
	}

	return results, nil
}

func sortedKeys(groups map[string][]string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
