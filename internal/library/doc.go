// Package library enumerates image files in a folder, ordered by capture
// time with a stable fallback for images without one, and serves the result
// in fixed-size pages for progressive disclosure.
package library
