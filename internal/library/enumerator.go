package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

// DefaultPageSize is the number of items disclosed per page as the view
// scrolls.
const DefaultPageSize = 20

// MetaStore caches capture times keyed by (path, mod time) so re-listing a
// folder does not re-read EXIF from every file. Implemented by the database
// package; nil disables caching.
type MetaStore interface {
	// LookupCaptureTime returns the cached capture time for path if the
	// stored mod time matches. found reports whether a usable row exists;
	// has reports whether the file actually carries a capture time.
	LookupCaptureTime(path string, modTime time.Time) (takenAt time.Time, has bool, found bool, err error)
	// StoreCaptureTime records the capture time (or its absence) for path.
	StoreCaptureTime(path string, modTime time.Time, takenAt time.Time, has bool) error
}

// Enumerator lists the image files of a folder ordered by capture time.
// It is call-only: callers consume listings and hand nothing back.
type Enumerator struct {
	pageSize int
	meta     MetaStore

	// captureTime is swappable in tests.
	captureTime func(path string, modTime time.Time) (time.Time, bool)
}

// NewEnumerator creates an enumerator producing pages of pageSize items.
// meta may be nil.
func NewEnumerator(pageSize int, meta MetaStore) *Enumerator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	e := &Enumerator{
		pageSize: pageSize,
		meta:     meta,
	}
	e.captureTime = e.resolveCaptureTime
	return e
}

// List enumerates dir and returns its images ordered by capture time
// ascending. Images without a capture time follow all dated images in the
// order the directory returned them. An unreadable folder yields an error
// and an empty listing; the caller surfaces it as "no images".
func (e *Enumerator) List(dir string) (*Listing, error) {
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		metrics.EnumerationsTotal.WithLabelValues("error").Inc()
		return &Listing{Dir: dir, PageSize: e.pageSize}, err
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Debug("skipping %s: %v", entry.Name(), err)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		takenAt, has := e.captureTime(path, info.ModTime())

		items = append(items, Item{
			ID:         uuid.NewString(),
			Path:       path,
			Name:       entry.Name(),
			TakenAt:    takenAt,
			HasTakenAt: has,
			Size:       info.Size(),
		})
	}

	// Dated items ascend by capture time; undated items keep their
	// enumeration order behind them.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.HasTakenAt && b.HasTakenAt:
			return a.TakenAt.Before(b.TakenAt)
		case a.HasTakenAt:
			return true
		default:
			return false
		}
	})

	metrics.EnumerationsTotal.WithLabelValues("success").Inc()
	metrics.EnumerationDuration.Observe(time.Since(start).Seconds())
	metrics.EnumerationItems.Observe(float64(len(items)))
	logging.Debug("enumerated %s: %d images in %s", dir, len(items), time.Since(start))

	return &Listing{Dir: dir, Items: items, PageSize: e.pageSize}, nil
}

// PageSize returns the configured page size.
func (e *Enumerator) PageSize() int {
	return e.pageSize
}

// resolveCaptureTime answers from the metadata index when it has a fresh
// row, otherwise reads EXIF and stores the answer for next time.
func (e *Enumerator) resolveCaptureTime(path string, modTime time.Time) (time.Time, bool) {
	if e.meta != nil {
		if takenAt, has, found, err := e.meta.LookupCaptureTime(path, modTime); err == nil && found {
			metrics.CaptureTimeLookupsTotal.WithLabelValues("index").Inc()
			return takenAt, has
		}
	}

	takenAt, has := exifCaptureTime(path)
	if has {
		metrics.CaptureTimeLookupsTotal.WithLabelValues("exif").Inc()
	} else {
		metrics.CaptureTimeLookupsTotal.WithLabelValues("absent").Inc()
	}

	if e.meta != nil {
		if err := e.meta.StoreCaptureTime(path, modTime, takenAt, has); err != nil {
			logging.Debug("failed to store capture time for %s: %v", path, err)
		}
	}
	return takenAt, has
}

// exifCaptureTime reads DateTimeOriginal (falling back per goexif to
// DateTime) from the file's EXIF block. Files without EXIF, or with an
// unparseable date, report no capture time.
func exifCaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
