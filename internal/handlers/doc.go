// Package handlers implements the HTTP surface of the thumbnail service:
// folder listing, thumbnail fetch, file deletion, and health endpoints. The
// handlers are the "view layer" caller of the pipeline: each thumbnail
// request drives one loader, and a dropped connection cancels it.
package handlers
