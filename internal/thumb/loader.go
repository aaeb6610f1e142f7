package thumb

import (
	"image"
	"sync"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// State is the lifecycle position of a Loader.
type State int32

const (
	// StateIdle means no bitmap is held and no job is outstanding. A failed
	// decode returns the loader here so a later Load may retry.
	StateIdle State = iota
	// StatePending means a decode job has been submitted and not resolved.
	StatePending
	// StateLoaded means a bitmap has been published.
	StateLoaded
	// StateCancelled means the owning cell went away; no future work runs.
	StateCancelled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DecodeFunc produces a correctly oriented bitmap for path, sized to fit
// within boxW x boxH.
type DecodeFunc func(path string, boxW, boxH int) (image.Image, error)

// Loader drives one visible thumbnail slot: check the cache, otherwise
// submit a decode job, and publish the result unless cancelled first.
//
// At most one live job exists per loader. Only the current job may publish,
// so a superseded or cancelled completion can never overwrite newer state.
// Consumers watch Changed and read Bitmap; there is no error surface — a
// failed load is indistinguishable from one still pending.
type Loader struct {
	path   string
	boxW   int
	boxH   int
	cache  *Cache
	sched  *Scheduler
	decode DecodeFunc

	mu     sync.Mutex
	state  State
	job    *Job
	bitmap image.Image

	// changed carries at most one pending pulse; publishing never blocks.
	changed chan struct{}
}

// NewLoader creates a loader for one grid cell. The cache and scheduler are
// shared services injected by the caller; the loader owns only its own job.
func NewLoader(path string, boxW, boxH int, cache *Cache, sched *Scheduler, decode DecodeFunc) *Loader {
	return &Loader{
		path:    path,
		boxW:    boxW,
		boxH:    boxH,
		cache:   cache,
		sched:   sched,
		decode:  decode,
		changed: make(chan struct{}, 1),
	}
}

// Load starts fetching the thumbnail. It is a no-op unless the loader is
// idle with no bitmap held. On a cache hit it publishes synchronously and
// no job is submitted; on a miss it enqueues a decode job and returns
// without blocking.
func (l *Loader) Load() {
	l.mu.Lock()

	if l.state != StateIdle || l.bitmap != nil {
		l.mu.Unlock()
		metrics.LoaderLoadsTotal.WithLabelValues("noop").Inc()
		return
	}

	if bitmap, ok := l.cache.Get(l.path); ok {
		l.bitmap = bitmap
		l.state = StateLoaded
		l.mu.Unlock()
		metrics.LoaderLoadsTotal.WithLabelValues("cache_hit").Inc()
		l.signal()
		return
	}

	job := &Job{Path: l.path, BoxW: l.boxW, BoxH: l.boxH}
	job.run = l.execute
	l.job = job
	l.state = StatePending
	l.mu.Unlock()

	if err := l.sched.Submit(job); err != nil {
		logging.Debug("Loader: submit failed for %s: %v", l.path, err)
		l.resolve(job, nil)
		return
	}
	metrics.LoaderLoadsTotal.WithLabelValues("scheduled").Inc()
}

// Cancel moves the loader to Cancelled and marks any outstanding job so its
// result is discarded. It is idempotent; a bitmap already published stays
// published.
func (l *Loader) Cancel() {
	l.mu.Lock()

	if l.job != nil {
		l.job.Cancel()
		l.job = nil
		metrics.LoaderCancellationsTotal.Inc()
	}

	if l.state == StateCancelled {
		l.mu.Unlock()
		return
	}
	l.state = StateCancelled
	l.mu.Unlock()
	l.signal()
}

// Bitmap returns the published bitmap, or nil while none is available.
func (l *Loader) Bitmap() image.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bitmap
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Changed returns a channel that receives a pulse after each state change.
// The channel holds one pending pulse; consumers re-read State and Bitmap
// after each receive.
func (l *Loader) Changed() <-chan struct{} {
	return l.changed
}

// Path returns the source path this loader serves.
func (l *Loader) Path() string {
	return l.path
}

// execute runs on a scheduler worker. The cancel flag is checked before the
// decode starts and again before any state or cache mutation, which is what
// keeps completed-but-unwanted work from resurrecting a dead cell.
func (l *Loader) execute(job *Job) {
	if job.Cancelled() {
		return
	}

	bitmap, err := l.decode(job.Path, job.BoxW, job.BoxH)
	if err != nil {
		// A bad file is absorbed here: the cell keeps its placeholder and a
		// future Load may retry.
		logging.Debug("Loader: decode failed for %s: %v", job.Path, err)
		metrics.SchedulerJobsTotal.WithLabelValues("failed").Inc()
		l.resolve(job, nil)
		return
	}

	if job.Cancelled() {
		// Cancelled mid-decode: discard, and skip the cache write too.
		return
	}

	// Write-through before publishing: even if this loader is superseded
	// between here and resolve, other cells for the same path benefit.
	l.cache.Set(job.Path, bitmap)
	metrics.SchedulerJobsTotal.WithLabelValues("completed").Inc()

	l.resolve(job, bitmap)
}

// resolve applies a job outcome. Only the loader's current job in Pending
// state may publish; anything else is a stale completion and is dropped.
// A nil bitmap records failure and re-arms the loader for retry.
func (l *Loader) resolve(job *Job, bitmap image.Image) {
	l.mu.Lock()

	if job.Cancelled() || l.job != job || l.state != StatePending {
		l.mu.Unlock()
		return
	}

	l.job = nil
	if bitmap == nil {
		l.state = StateIdle
	} else {
		l.bitmap = bitmap
		l.state = StateLoaded
	}
	l.mu.Unlock()
	l.signal()
}

func (l *Loader) signal() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}
