// Package metrics defines all Prometheus metrics for the thumbnail pipeline.
// Metrics are registered with the default registry via promauto at package
// load and exposed through the /metrics endpoint.
package metrics
