// Package database provides the SQLite-backed capture time index. It exists
// purely so repeat folder listings skip EXIF re-reads; the bitmap cache
// itself is never persisted.
package database
