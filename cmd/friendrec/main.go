package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"pkg.jsn.cam/friendrec/internal/pipeline"
	"pkg.jsn.cam/friendrec/pkg/executors"
)

var (
	parallelism  = flag.Int("parallelism", 0, "Concurrent map/reduce tasks (default: number of CPUs)")
	partitions   = flag.Int("partitions", pipeline.DefaultPartitions, "Reduce partitions (part files) per stage")
	chunkSize    = flag.Int("chunk-size", pipeline.DefaultChunkSize, "Input lines per map task")
	intermediate = flag.String("intermediate", pipeline.DefaultIntermediateDir, "Intermediate dataset location (cleared on every run)")
	spillPath    = flag.String("spill", "", "bbolt file for shuffle spill and job history (default: in memory)")
	keepSpill    = flag.Bool("keep-spill", false, "Keep spill data after each stage")
	noCombine    = flag.Bool("no-combine", false, "Disable map-side combining")
	listJobs     = flag.Bool("jobs", false, "List jobs recorded in the -spill database and exit")
	showJob      = flag.String("job", "", "Show one job recorded in the -spill database and exit")
	listWorkers  = flag.Bool("executors", false, "List the stage executors and exit")
	verbose      = flag.Bool("v", false, "Debug logging")
	logFormat    = flag.String("log-format", "text", "Log format: text or json")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input> <output>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Computes people-you-might-know recommendations from an adjacency list\n")
	fmt.Fprintf(os.Stderr, "of \"user<TAB>friend,friend,...\" lines.\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	configureLogging()

	os.Exit(run())
}

func configureLogging() {
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *logFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func run() int {
	cfg := pipeline.Config{
		Parallelism:     *parallelism,
		Partitions:      *partitions,
		ChunkSize:       *chunkSize,
		IntermediateDir: *intermediate,
		SpillPath:       *spillPath,
		KeepSpill:       *keepSpill,
		NoCombine:       *noCombine,
	}

	if *listWorkers {
		return printExecutors()
	}

	if *listJobs || *showJob != "" {
		if *spillPath == "" {
			log.Error("-jobs and -job require -spill")
			return 1
		}
		return printJobs(cfg, *showJob)
	}

	if flag.NArg() != 2 {
		flag.Usage()
		return 1
	}
	input, output := flag.Arg(0), flag.Arg(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Errorf("Failed to create pipeline: %v", err)
		return 1
	}
	defer p.Close()

	job, err := p.Run(ctx, input, output)
	if job == nil {
		log.Errorf("Job not started: %v", err)
		return 1
	}

	printJob(job)
	if err != nil {
		return 1
	}

	return 0
}

// printJobs lists every recorded job, or shows the one with id when set.
func printJobs(cfg pipeline.Config, id string) int {
	p, err := pipeline.New(cfg)
	if err != nil {
		log.Errorf("Failed to open job history: %v", err)
		return 1
	}
	defer p.Close()

	if id != "" {
		job, err := p.Jobs().Load(id)
		if err != nil {
			log.Errorf("Failed to load job %s: %v", id, err)
			return 1
		}
		if job == nil {
			log.Errorf("Job %s not found", id)
			return 1
		}
		printJob(job)
		return 0
	}

	jobs, err := p.Jobs().List()
	if err != nil {
		log.Errorf("Failed to list jobs: %v", err)
		return 1
	}

	printJobList(jobs)
	return 0
}

func printExecutors() int {
	for _, name := range executors.ListExecutors() {
		desc, err := executors.GetDescription(name)
		if err != nil {
			log.Errorf("Failed to describe executor %s: %v", name, err)
			return 1
		}
		fmt.Printf("%-15s %s\n", name, desc)
	}
	return 0
}
