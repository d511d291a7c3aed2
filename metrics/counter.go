package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type promCounter struct {
	reg     prom.Registerer
	counter *prom.CounterVec
}

var _ Counter = (*promCounter)(nil)

// NewCounter registers a counter vector on reg, or the default registerer
// when reg is nil.
func NewCounter(reg prom.Registerer, conf *VectorOption) Counter {
	if conf == nil {
		return nil
	}
	vec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: conf.Namespace,
		Subsystem: conf.Subsystem,
		Name:      conf.Name,
		Help:      conf.Help,
	}, conf.Labels)
	reg = registerer(reg)
	reg.MustRegister(vec)
	return &promCounter{
		reg:     reg,
		counter: vec,
	}
}

// Close implements Counter.
func (p *promCounter) Close() error {
	if p.reg.Unregister(p.counter) {
		return nil
	}
	return errors.New("failed to unregister counter metric")
}

// Inc implements Counter.
func (p *promCounter) Inc(labels ...string) {
	update(func() {
		p.counter.WithLabelValues(labels...).Inc()
	})
}
