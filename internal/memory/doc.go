// Package memory configures the Go runtime memory limit from container
// limits so decode bursts stay inside the pod allocation.
package memory
