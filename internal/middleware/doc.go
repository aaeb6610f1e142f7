// Package middleware provides HTTP middleware for request logging and
// Prometheus metrics.
package middleware
