// Package pipeline runs the two-stage people-you-might-know job: mutual
// friend counting per pair, then ranking per user.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"pkg.jsn.cam/friendrec/internal/shuffle"
	"pkg.jsn.cam/friendrec/pkg/storage"
)

var ErrPathConflict = errors.New("input, intermediate and output paths must not overlap")

// Pipeline owns the spill store shared by both stages.
type Pipeline struct {
	cfg     Config
	backend storage.Backend
	spill   *shuffle.Store
	jobs    *JobStore
}

// New creates a pipeline. With cfg.SpillPath set, spill data and job records
// live in a bbolt database at that path; otherwise they are kept in memory.
func New(cfg Config) (*Pipeline, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var backend storage.Backend
	if cfg.SpillPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SpillPath), 0755); err != nil {
			return nil, fmt.Errorf("create spill directory: %w", err)
		}
		bboltBackend, err := storage.NewBboltBackend(cfg.SpillPath, true)
		if err != nil {
			return nil, fmt.Errorf("create spill store: %w", err)
		}
		backend = bboltBackend
		log.WithField("component", "pipeline").Infof("Spilling to %s", cfg.SpillPath)
	} else {
		backend = storage.NewMemoryBackend()
		log.WithField("component", "pipeline").Debug("Spilling to memory")
	}

	return NewWithBackend(cfg, backend)
}

// NewWithBackend creates a pipeline on an existing storage backend. The
// pipeline takes ownership of backend and closes it in Close.
func NewWithBackend(cfg Config, backend storage.Backend) (*Pipeline, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		backend.Close()
		return nil, err
	}

	spill, err := shuffle.Open(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		backend: backend,
		spill:   spill,
		jobs:    NewJobStore(backend),
	}, nil
}

func (p *Pipeline) Close() error {
	return p.backend.Close()
}

// Jobs gives access to the recorded runs.
func (p *Pipeline) Jobs() *JobStore {
	return p.jobs
}

// Run computes recommendations for every user in inputPath and writes them to
// outputPath. The intermediate dataset and any previous output are deleted
// before the first stage, so a failed run never leaves an old result behind
// and reruns over the same input produce identical output. The returned job
// is non-nil whenever the run started, including on failure.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (*Job, error) {
	if pathsOverlap(inputPath, outputPath) || pathsOverlap(inputPath, p.cfg.IntermediateDir) ||
		pathsOverlap(outputPath, p.cfg.IntermediateDir) {
		return nil, ErrPathConflict
	}

	job := newJob(p.cfg, inputPath, outputPath)
	logger := log.WithFields(log.Fields{"component": "pipeline", "job": job.ID})
	logger.Infof("Starting job (input %s, output %s)", inputPath, outputPath)
	p.save(job)

	if err := clearPath(p.cfg.IntermediateDir); err != nil {
		return p.fail(job, fmt.Errorf("clear intermediate dataset: %w", err))
	}
	if err := clearPath(outputPath); err != nil {
		return p.fail(job, fmt.Errorf("clear previous output: %w", err))
	}

	inputs := []string{inputPath, p.cfg.IntermediateDir}
	outputs := []string{p.cfg.IntermediateDir, outputPath}

	for i, progress := range job.Stages {
		runner, err := p.newStageRunner(job, progress)
		if err != nil {
			return p.fail(job, err)
		}

		if err := runner.run(ctx, inputs[i], outputs[i]); err != nil {
			return p.fail(job, err)
		}
		p.save(job)
	}

	job.Status = JobStatusCompleted
	job.CompletedAt = time.Now()
	p.save(job)

	logger.Infof("Job completed in %v", job.CompletedAt.Sub(job.StartedAt).Round(time.Millisecond))

	return job, nil
}

func (p *Pipeline) fail(job *Job, err error) (*Job, error) {
	job.Status = JobStatusFailed
	job.Error = err.Error()
	job.CompletedAt = time.Now()
	p.save(job)

	log.WithFields(log.Fields{"component": "pipeline", "job": job.ID}).Errorf("Job failed: %v", err)

	return job, err
}

// save records job progress. A failure to persist the record is logged and
// does not fail the run.
func (p *Pipeline) save(job *Job) {
	if err := p.jobs.Save(job); err != nil {
		log.WithFields(log.Fields{"component": "pipeline", "job": job.ID}).Warnf("Error persisting job: %v", err)
	}
}
