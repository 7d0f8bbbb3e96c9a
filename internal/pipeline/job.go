package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"pkg.jsn.cam/friendrec/pkg/storage"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

var jobsBucket = []byte("jobs")

// Job is the record of one pipeline run.
type Job struct {
	ID               string    `json:"id"`
	Status           JobStatus `json:"status"`
	InputPath        string    `json:"input_path"`
	IntermediatePath string    `json:"intermediate_path"`
	OutputPath       string    `json:"output_path"`
	ChunkSize        int       `json:"chunk_size"`
	Partitions       int       `json:"partitions"`
	Parallelism      int       `json:"parallelism"`

	Stages []*StageProgress `json:"stages"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Error       string    `json:"error,omitempty"`
	Duration    float64   `json:"duration,omitempty"` // seconds
}

// StageProgress tracks one map/reduce stage of a job.
type StageProgress struct {
	Name     string `json:"name"`
	Executor string `json:"executor"`

	InputFiles       int    `json:"input_files"`
	MapTasksDone     int    `json:"map_tasks_done"`
	MapOutputRecords int    `json:"map_output_records"`
	SpilledBytes     uint64 `json:"spilled_bytes"`
	ReduceTasksTotal int    `json:"reduce_tasks_total"`
	ReduceTasksDone  int    `json:"reduce_tasks_done"`
	OutputRecords    int    `json:"output_records"`
	OutputBytes      uint64 `json:"output_bytes"`

	StartedAt           time.Time `json:"started_at,omitempty"`
	MapPhaseCompletedAt time.Time `json:"map_phase_completed_at,omitempty"`
	CompletedAt         time.Time `json:"completed_at,omitempty"`

	// Computed durations (in seconds)
	Duration            float64 `json:"duration,omitempty"`
	MapPhaseDuration    float64 `json:"map_phase_duration,omitempty"`
	ReducePhaseDuration float64 `json:"reduce_phase_duration,omitempty"`
}

func newJob(cfg Config, inputPath, outputPath string) *Job {
	job := &Job{
		ID:               uuid.New().String(),
		Status:           JobStatusRunning,
		InputPath:        inputPath,
		IntermediatePath: cfg.IntermediateDir,
		OutputPath:       outputPath,
		ChunkSize:        cfg.ChunkSize,
		Partitions:       cfg.Partitions,
		Parallelism:      cfg.Parallelism,
		StartedAt:        time.Now(),
	}

	for _, s := range stages {
		job.Stages = append(job.Stages, &StageProgress{
			Name:             s.name,
			Executor:         s.executor,
			ReduceTasksTotal: cfg.Partitions,
		})
	}

	return job
}

// ComputeDurations fills in the duration fields of the job and its stages.
func (j *Job) ComputeDurations() {
	if !j.CompletedAt.IsZero() {
		j.Duration = j.CompletedAt.Sub(j.StartedAt).Seconds()
	} else if j.Status == JobStatusRunning {
		j.Duration = time.Since(j.StartedAt).Seconds()
	}

	for _, s := range j.Stages {
		s.ComputeDurations()
	}
}

// ComputeDurations fills in the duration fields of a stage. Phases still in
// progress report the time elapsed so far.
func (s *StageProgress) ComputeDurations() {
	if s.StartedAt.IsZero() {
		return
	}

	end := s.CompletedAt
	if end.IsZero() {
		end = time.Now()
	}
	s.Duration = end.Sub(s.StartedAt).Seconds()

	if s.MapPhaseCompletedAt.IsZero() {
		s.MapPhaseDuration = s.Duration
		return
	}
	s.MapPhaseDuration = s.MapPhaseCompletedAt.Sub(s.StartedAt).Seconds()
	s.ReducePhaseDuration = end.Sub(s.MapPhaseCompletedAt).Seconds()
}

// JobStore persists job records next to the spill data.
type JobStore struct {
	store *storage.JSONStore
}

func NewJobStore(backend storage.Backend) *JobStore {
	return &JobStore{store: storage.NewJSONStore(backend)}
}

func (s *JobStore) Save(job *Job) error {
	job.ComputeDurations()
	if err := s.store.PutJSON(jobsBucket, []byte(job.ID), job); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Load returns the job with the given id, or nil if there is none.
func (s *JobStore) Load(id string) (*Job, error) {
	var job Job
	found, err := s.store.GetJSON(jobsBucket, []byte(id), &job)
	if err != nil || !found {
		return nil, err
	}
	return &job, nil
}

// List returns every recorded job, oldest first.
func (s *JobStore) List() ([]*Job, error) {
	jobs, err := storage.ListJSON[Job](s.store, jobsBucket)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	sortJobs(jobs)
	return jobs, nil
}

func sortJobs(jobs []*Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
}
