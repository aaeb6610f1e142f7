package library

import "time"

// Item is one read-only listing record for an image file. Items are created
// in bulk per enumeration and replaced wholesale when the folder changes.
type Item struct {
	// ID is unique per listing, generated at enumeration time.
	ID string `json:"id"`
	// Path is the absolute source path, the cache key for its thumbnail.
	Path string `json:"path"`
	// Name is the base file name.
	Name string `json:"name"`
	// TakenAt is the capture time when known.
	TakenAt time.Time `json:"takenAt,omitempty"`
	// HasTakenAt reports whether TakenAt is meaningful. Items without a
	// capture time sort after all dated items, in enumeration order.
	HasTakenAt bool `json:"hasTakenAt"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// Listing is the ordered result of enumerating one folder.
type Listing struct {
	Dir      string
	Items    []Item
	PageSize int
}

// Page returns the n-th fixed-size page (zero-based). Out-of-range pages
// return an empty slice.
func (l *Listing) Page(n int) []Item {
	if l.PageSize <= 0 || n < 0 {
		return nil
	}
	start := n * l.PageSize
	if start >= len(l.Items) {
		return nil
	}
	end := start + l.PageSize
	if end > len(l.Items) {
		end = len(l.Items)
	}
	return l.Items[start:end]
}

// Pages returns the number of pages in the listing.
func (l *Listing) Pages() int {
	if l.PageSize <= 0 {
		return 0
	}
	return (len(l.Items) + l.PageSize - 1) / l.PageSize
}

// imageExts are the extensions the enumerator treats as images.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true, ".avif": true,
}
