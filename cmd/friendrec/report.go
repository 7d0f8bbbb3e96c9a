package main

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"pkg.jsn.cam/friendrec/internal/pipeline"
)

func printJob(job *pipeline.Job) {
	job.ComputeDurations()

	fmt.Printf("Job Details:\n")
	fmt.Printf("  ID:           %s\n", job.ID)
	fmt.Printf("  Status:       %s\n", job.Status)
	fmt.Printf("  Input Path:   %s\n", job.InputPath)
	fmt.Printf("  Intermediate: %s\n", job.IntermediatePath)
	fmt.Printf("  Output Path:  %s\n", job.OutputPath)
	fmt.Printf("  Chunk Size:   %s lines\n", humanize.Comma(int64(job.ChunkSize)))
	fmt.Printf("  Partitions:   %d\n", job.Partitions)
	fmt.Printf("  Started:      %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
	if !job.CompletedAt.IsZero() {
		fmt.Printf("  Completed:    %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Duration:     %.2fs\n", job.Duration)
	}

	for _, s := range job.Stages {
		if s.StartedAt.IsZero() {
			continue
		}
		fmt.Printf("\nStage %s (%s):\n", s.Name, s.Executor)
		fmt.Printf("  Map tasks:      %d (%s records, %s spilled)\n",
			s.MapTasksDone, humanize.Comma(int64(s.MapOutputRecords)), humanize.Bytes(s.SpilledBytes))
		fmt.Printf("  Reduce tasks:   %d/%d completed\n", s.ReduceTasksDone, s.ReduceTasksTotal)
		fmt.Printf("  Output:         %s records (%s)\n",
			humanize.Comma(int64(s.OutputRecords)), humanize.Bytes(s.OutputBytes))
		fmt.Printf("  Map phase:      %.2fs\n", s.MapPhaseDuration)
		fmt.Printf("  Reduce phase:   %.2fs\n", s.ReducePhaseDuration)
	}

	if job.Error != "" {
		fmt.Printf("\nError: %s\n", job.Error)
	}
}

func printJobList(jobs []*pipeline.Job) {
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return
	}

	fmt.Printf("%-36s %-10s %-14s %s\n", "JOB ID", "STATUS", "STARTED", "OUTPUT")
	fmt.Println("─────────────────────────────────────────────────────────────────────────────────────────")
	for _, job := range jobs {
		fmt.Printf("%-36s %-10s %-14s %s\n",
			job.ID,
			job.Status,
			humanize.Time(job.StartedAt),
			job.OutputPath)
	}
}
