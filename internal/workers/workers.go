package workers

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultDecodeWorkers caps the decode pool below full hardware parallelism
// so simultaneous full-resolution decodes cannot exhaust memory.
const DefaultDecodeWorkers = 6

// Count returns the number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the DECODE_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("DECODE_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForDecode returns the worker count for thumbnail decoding: one per CPU,
// never more than DefaultDecodeWorkers.
func ForDecode() int {
	return Count(1.0, DefaultDecodeWorkers)
}
