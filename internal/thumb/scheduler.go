package thumb

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// DefaultQueueDepth is the admission buffer for decode jobs. It only needs
// to cover the burst of one fast scroll; jobs beyond it are rejected rather
// than blocking the caller.
const DefaultQueueDepth = 1024

var (
	// ErrSchedulerStopped is returned by Submit after Stop.
	ErrSchedulerStopped = errors.New("scheduler stopped")
	// ErrQueueFull is returned by Submit when the admission buffer is full.
	ErrQueueFull = errors.New("decode queue full")
)

// Job is one unit of decode work submitted on behalf of a single Loader.
// The owning loader sets the cancel flag; workers check it before starting
// and the loader checks it again before publishing, so a cancelled job can
// finish but never mutate visible state.
type Job struct {
	Path string
	BoxW int
	BoxH int

	cancelled atomic.Bool
	run       func(*Job)
}

// Cancel marks the job so its result is discarded. Safe from any goroutine.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Cancelled reports whether the job has been cancelled.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

// Scheduler runs decode jobs on a fixed-size worker pool. Jobs are admitted
// FIFO with no priority distinction.
type Scheduler struct {
	queue chan *Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopped atomic.Bool
	queued  atomic.Int64

	// Statistics
	completed atomic.Int64
	skipped   atomic.Int64
}

// NewScheduler starts a pool of workers consuming decode jobs.
// workers must be at least 1; queueDepth <= 0 uses DefaultQueueDepth.
func NewScheduler(workers, queueDepth int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		queue:  make(chan *Job, queueDepth),
		ctx:    ctx,
		cancel: cancel,
	}

	metrics.SchedulerWorkers.Set(float64(workers))
	logging.Debug("Scheduler: starting %d decode workers (queue depth %d)", workers, queueDepth)

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	return s
}

// Submit enqueues a decode job. It never blocks: a stopped scheduler or a
// full queue rejects the job with an error and the caller unwinds.
func (s *Scheduler) Submit(job *Job) error {
	if s.stopped.Load() {
		return ErrSchedulerStopped
	}

	select {
	case s.queue <- job:
		depth := s.queued.Add(1)
		metrics.SchedulerQueueDepth.Set(float64(depth))
		return nil
	default:
		metrics.SchedulerJobsTotal.WithLabelValues("rejected").Inc()
		return ErrQueueFull
	}
}

// CancelAll marks every queued-but-unstarted job cancelled and drains it
// from the queue. Jobs already running finish on their worker; their
// results are discarded by the owning loader's cancel check. Admission
// resumes immediately, so this is safe to call on every folder switch.
func (s *Scheduler) CancelAll() {
	drained := 0
	for {
		select {
		case job := <-s.queue:
			s.queued.Add(-1)
			job.Cancel()
			s.skipped.Add(1)
			metrics.SchedulerJobsTotal.WithLabelValues("cancelled").Inc()
			drained++
		default:
			metrics.SchedulerQueueDepth.Set(float64(s.queued.Load()))
			if drained > 0 {
				logging.Debug("Scheduler: cancelled %d queued jobs", drained)
			}
			return
		}
	}
}

// Stop shuts the pool down: no further admissions, queued jobs are
// cancelled, and workers exit once their current job finishes.
func (s *Scheduler) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	s.CancelAll()
	s.cancel()
	s.wg.Wait()
	logging.Debug("Scheduler: stopped (%d completed, %d skipped)",
		s.completed.Load(), s.skipped.Load())
}

// Depth returns the number of jobs waiting for a worker.
func (s *Scheduler) Depth() int {
	return int(s.queued.Load())
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.queue:
			depth := s.queued.Add(-1)
			metrics.SchedulerQueueDepth.Set(float64(depth))

			if job.Cancelled() {
				s.skipped.Add(1)
				metrics.SchedulerJobsTotal.WithLabelValues("cancelled").Inc()
				continue
			}

			start := time.Now()
			job.run(job)
			metrics.DecodeDuration.Observe(time.Since(start).Seconds())
			s.completed.Add(1)
		}
	}
}
