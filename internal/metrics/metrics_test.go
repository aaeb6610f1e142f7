package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCacheCountersIncrement(t *testing.T) {
	before := counterValue(t, CacheHitsTotal)
	CacheHitsTotal.Inc()
	after := counterValue(t, CacheHitsTotal)
	if after != before+1 {
		t.Errorf("CacheHitsTotal = %v after Inc, want %v", after, before+1)
	}
}

func TestVectorLabelsAreValid(t *testing.T) {
	// Instantiating each label combination panics on mismatched cardinality,
	// so touching them here catches label drift.
	SchedulerJobsTotal.WithLabelValues("completed").Add(0)
	SchedulerJobsTotal.WithLabelValues("cancelled").Add(0)
	SchedulerJobsTotal.WithLabelValues("failed").Add(0)
	SchedulerJobsTotal.WithLabelValues("rejected").Add(0)
	LoaderLoadsTotal.WithLabelValues("cache_hit").Add(0)
	LoaderLoadsTotal.WithLabelValues("scheduled").Add(0)
	LoaderLoadsTotal.WithLabelValues("noop").Add(0)
	EnumerationsTotal.WithLabelValues("success").Add(0)
	CaptureTimeLookupsTotal.WithLabelValues("exif").Add(0)
	IndexQueriesTotal.WithLabelValues("lookup", "success").Add(0)
	HTTPRequestsTotal.WithLabelValues("GET", "/api/folder", "200").Add(0)
}
