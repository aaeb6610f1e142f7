// Package workers resolves worker pool sizes from available CPU, with an
// environment override for operators.
package workers
