package metrics

import (
	"errors"
	"sync/atomic"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Nop discards every event.
type Nop struct{}

var _ Collector = Nop{}

func (Nop) Attempt(string) {}
func (Nop) Success(string) {}
func (Nop) Allocation(int) {}
func (Nop) Release(int) {}
func (Nop) Relocation(int) {}

type (
	// Stats counts events in process. It is safe for concurrent use, so one
	// Stats may be shared by many containers.
	Stats struct {
		attempts  atomic.Int64
		successes atomic.Int64
		allocated atomic.Int64
		released  atomic.Int64
		relocated atomic.Int64
	}

	// Snapshot is a copy of the Stats counters.
	Snapshot struct {
		Attempts  int64
		Successes int64
		Allocated int64
		Released  int64
		Relocated int64
	}
)

var _ Collector = (*Stats)(nil)

func (s *Stats) Attempt(string) {
	s.attempts.Add(1)
}

func (s *Stats) Success(string) {
	s.successes.Add(1)
}

func (s *Stats) Allocation(n int) {
	s.allocated.Add(int64(n))
}

func (s *Stats) Release(n int) {
	s.released.Add(int64(n))
}

func (s *Stats) Relocation(n int) {
	s.relocated.Add(int64(n))
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Attempts:  s.attempts.Load(),
		Successes: s.successes.Load(),
		Allocated: s.allocated.Load(),
		Released:  s.released.Load(),
		Relocated: s.relocated.Load(),
	}
}

// Prom exports container events as prometheus metrics. Updates are
// dropped while the process-wide switch in package prometheus is off, so
// call prometheus.Enable or prometheus.Start before relying on it. Use
// Stats for counts that must not depend on that switch.
type Prom struct {
	attempts    Counter
	successes   Counter
	allocated   Histogram
	outstanding Gauge
	relocated   Summary
}

var _ Collector = (*Prom)(nil)

// NewProm registers the container metrics under namespace on reg. It does
// not turn metrics on; see prometheus.Enable.
func NewProm(reg prom.Registerer, namespace string) *Prom {
	const subsystem = "container"
	return &Prom{
		attempts: NewCounter(reg, &VectorOption{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inplace_attempts_total",
			Help:      "In-place resize requests sent to the provider.",
			Labels:    []string{"op"},
		}),
		successes: NewCounter(reg, &VectorOption{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inplace_successes_total",
			Help:      "In-place resize requests the provider satisfied.",
			Labels:    []string{"op"},
		}),
		allocated: NewHistogram(reg, &HistogramVecOpts{
			VectorOption: VectorOption{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "allocated_slots",
				Help:      "Slots acquired per allocation or in-place growth.",
			},
			Buckets: prom.ExponentialBuckets(1, 4, 10),
		}),
		outstanding: NewGauge(reg, &VectorOption{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outstanding_slots",
			Help:      "Slots allocated and not yet released.",
		}),
		relocated: NewSummary(reg, &SummaryVecOpts{
			VecOpt: VectorOption{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "relocated_elements",
				Help:      "Elements moved per fallback reallocation.",
			},
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}

func (p *Prom) Attempt(op string) {
	p.attempts.Inc(op)
}

func (p *Prom) Success(op string) {
	p.successes.Inc(op)
}

func (p *Prom) Allocation(n int) {
	p.allocated.Observe(float64(n))
	p.outstanding.Add(float64(n))
}

func (p *Prom) Release(n int) {
	p.outstanding.Sub(float64(n))
}

func (p *Prom) Relocation(n int) {
	p.relocated.Observe(float64(n))
}

// Close unregisters every metric.
func (p *Prom) Close() error {
	return errors.Join(
		p.attempts.Close(),
		p.successes.Close(),
		p.allocated.Close(),
		p.outstanding.Close(),
		p.relocated.Close(),
	)
}
