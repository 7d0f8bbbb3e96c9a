package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pkg.jsn.cam/friendrec/pkg/executors"
	"pkg.jsn.cam/friendrec/pkg/mapreduce"
)

// stages are run in order; each reads the previous stage's output.
var stages = []struct {
	name     string
	executor string
}{
	{name: "mutual-friends", executor: executors.MutualFriends},
	{name: "recommendations", executor: executors.Recommend},
}

// stageRunner executes one stage: map tasks over the input, spill, barrier,
// then one reduce task per partition writing a part file.
type stageRunner struct {
	cfg      Config
	pipeline *Pipeline
	progress *StageProgress
	worker   mapreduce.Worker
	logger   *log.Entry

	mu sync.Mutex // guards progress counters while tasks run
}

func (p *Pipeline) newStageRunner(job *Job, progress *StageProgress) (*stageRunner, error) {
	if !executors.IsValidExecutor(progress.Executor) {
		return nil, fmt.Errorf("%w: %s", mapreduce.ErrInvalidExecutor, progress.Executor)
	}

	worker := executors.GetExecutor(progress.Executor)
	if p.cfg.NoCombine {
		worker = mapreduce.WithoutCombiner(worker)
	}

	return &stageRunner{
		cfg:      p.cfg,
		pipeline: p,
		progress: progress,
		worker:   worker,
		logger: log.WithFields(log.Fields{
			"component": "stage",
			"job":       job.ID,
			"stage":     progress.Name,
		}),
	}, nil
}

func (r *stageRunner) run(ctx context.Context, inputPath, outputDir string) error {
	r.progress.StartedAt = time.Now()

	files, err := mapreduce.InputFiles(inputPath)
	if err != nil {
		return err
	}
	r.progress.InputFiles = len(files)

	r.logger.Infof("Starting stage (%d input files, executor %s)", len(files), r.progress.Executor)

	if err := r.mapPhase(ctx, files); err != nil {
		return fmt.Errorf("%s map phase: %w", r.progress.Name, err)
	}
	r.progress.MapPhaseCompletedAt = time.Now()

	stats, err := r.pipeline.spill.Stats(r.progress.Name)
	if err != nil {
		return fmt.Errorf("%s spill stats: %w", r.progress.Name, err)
	}
	r.progress.SpilledBytes = stats.Bytes
	r.logger.Infof("Map phase done: %d tasks, %s records spilled to %d partitions (%s)",
		r.progress.MapTasksDone, humanize.Comma(int64(stats.KVs)), stats.Partitions, humanize.Bytes(stats.Bytes))

	if err := r.reducePhase(ctx, outputDir); err != nil {
		if cerr := clearPath(outputDir); cerr != nil {
			r.logger.Warnf("Failed to remove partial output %s: %v", outputDir, cerr)
		}
		return fmt.Errorf("%s reduce phase: %w", r.progress.Name, err)
	}

	if !r.cfg.KeepSpill {
		if err := r.pipeline.spill.CleanupStage(r.progress.Name); err != nil {
			r.logger.Warnf("Failed to clean up spill data: %v", err)
		}
	}

	r.progress.CompletedAt = time.Now()
	r.logger.Infof("Stage completed: %s records written to %s",
		humanize.Comma(int64(r.progress.OutputRecords)), outputDir)

	return nil
}

func (r *stageRunner) mapPhase(ctx context.Context, files []string) error {
	if err := r.pipeline.spill.CleanupStage(r.progress.Name); err != nil {
		return fmt.Errorf("clear stale spill: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan []string, r.cfg.Parallelism)

	g.Go(func() error {
		return mapreduce.Chunk(gctx, files, r.cfg.ChunkSize, chunks)
	})
	g.Go(func() error {
		return mapreduce.MapPhase(gctx, chunks, r.worker, r.cfg.Parallelism, r.spillTask)
	})

	return g.Wait()
}

// spillTask partitions one map task's output and writes it to the spill
// store.
func (r *stageRunner) spillTask(task int, kvs []mapreduce.KeyValue) error {
	partitioned := mapreduce.PartitionMapOutput(kvs, r.cfg.Partitions)
	if err := r.pipeline.spill.StoreTaskOutput(r.progress.Name, task, partitioned); err != nil {
		return fmt.Errorf("spill map task %d: %w", task, err)
	}

	r.logger.WithField("task", task).Debugf("Map task emitted %d records into %d partitions",
		len(kvs), len(partitioned))

	r.mu.Lock()
	r.progress.MapTasksDone++
	r.progress.MapOutputRecords += len(kvs)
	r.mu.Unlock()

	return nil
}

func (r *stageRunner) reducePhase(ctx context.Context, outputDir string) error {
	if err := resetDir(outputDir); err != nil {
		return fmt.Errorf("prepare output: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)

	for partition := range r.cfg.Partitions {
		g.Go(func() error {
			return r.reduceTask(gctx, partition, outputDir)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return markSuccess(outputDir)
}

func (r *stageRunner) reduceTask(ctx context.Context, partition int, outputDir string) error {
	kvs, err := r.pipeline.spill.GetPartition(r.progress.Name, partition)
	if err != nil {
		return fmt.Errorf("read partition %d: %w", partition, err)
	}

	grouped := mapreduce.ShuffleAndGroup(kvs)

	results, err := mapreduce.ReducePhase(ctx, grouped, r.worker)
	if err != nil {
		return fmt.Errorf("reduce partition %d: %w", partition, err)
	}

	written, err := writePart(outputDir, partition, results)
	if err != nil {
		return err
	}

	r.logger.WithField("task", partition).Debugf("Reduce task grouped %d keys into %d records (%s)",
		len(grouped), len(results), humanize.Bytes(written))

	r.mu.Lock()
	r.progress.ReduceTasksDone++
	r.progress.OutputRecords += len(results)
	r.progress.OutputBytes += written
	r.mu.Unlock()

	return nil
}
