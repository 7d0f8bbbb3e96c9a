package mapreduce

import "errors"

// Sentinel errors for common error conditions
var (
	// Executor-related errors
	ErrInvalidExecutor = errors.New("invalid executor specified")

	// Phase errors
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	ErrMap              = errors.New("error during map phase")
	ErrCombine          = errors.New("error during combine phase")
	ErrReduce           = errors.New("error during reduce phase")

	// Input errors
	ErrNoInput = errors.New("no input files")

	// Partitioning
	ErrInvalidPartitions = errors.New("invalid partition count")
)
