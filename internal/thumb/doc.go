// Package thumb implements the thumbnail production pipeline: a bounded
// LRU bitmap cache keyed by source path, a fixed-concurrency decode
// scheduler, and a per-cell loader that ties fetch and cancel lifecycle to
// cache population.
package thumb
