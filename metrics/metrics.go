// Package metrics provides the collectors containers report their
// allocation activity to. The zero choice is Nop; Stats keeps in-process
// counters and Prom exports prometheus vectors.
package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"xalloc/prometheus"
)

// Operation labels passed to Collector.
const (
	OpExpand = "expand"
	OpShrink = "shrink"
	OpResize = "resize"
)

type (
	// VectorOption defines options for creating metric vectors.
	VectorOption struct {
		Namespace string
		Subsystem string
		Name      string
		Help      string
		Labels    []string
	}
	// Metrics defines the interface for metrics collection and reporting.
	Metrics interface {
		// Close unregisters the metric.
		Close() error
	}
	// Counter counts events per label set.
	Counter interface {
		Metrics
		Inc(labels ...string)
	}
	// Gauge tracks a level that moves both ways.
	Gauge interface {
		Metrics
		Add(delta float64, labels ...string)
		Sub(delta float64, labels ...string)
	}
	// Histogram defines the interface for a histogram metric.
	Histogram interface {
		Metrics
		Observe(value float64, labels ...string)
	}
	// Summary defines the interface for a summary metric.
	Summary interface {
		Metrics
		Observe(value float64, labels ...string)
	}

	// Collector receives allocation events from buffers and arrays.
	Collector interface {
		// Attempt records an in-place request of the given operation.
		Attempt(op string)
		// Success records an in-place request the provider satisfied.
		Success(op string)
		// Allocation records n slots acquired, as a fresh block or by
		// growing one in place.
		Allocation(n int)
		// Release records n slots handed back.
		Release(n int)
		// Relocation records n elements moved by a fallback reallocation.
		Relocation(n int)
	}
)

func registerer(reg prom.Registerer) prom.Registerer {
	if reg == nil {
		return prom.DefaultRegisterer
	}
	return reg
}

func update(fn func()) {
	if !prometheus.Enabled() {
		return
	}
	fn()
}
