package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type promGauge struct {
	reg   prom.Registerer
	gauge *prom.GaugeVec
}

var _ Gauge = (*promGauge)(nil)

// NewGauge registers a gauge vector on reg, or the default registerer when
// reg is nil.
func NewGauge(reg prom.Registerer, conf *VectorOption) Gauge {
	if conf == nil {
		return nil
	}
	vec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: conf.Namespace,
		Subsystem: conf.Subsystem,
		Name:      conf.Name,
		Help:      conf.Help,
	}, conf.Labels)
	reg = registerer(reg)
	reg.MustRegister(vec)
	return &promGauge{
		reg:   reg,
		gauge: vec,
	}
}

// Add implements Gauge.
func (p *promGauge) Add(delta float64, labels ...string) {
	update(func() {
		p.gauge.WithLabelValues(labels...).Add(delta)
	})
}

// Close implements Gauge.
func (p *promGauge) Close() error {
	if p.reg.Unregister(p.gauge) {
		return nil
	}
	return errors.New("failed to unregister gauge metric")
}

// Sub implements Gauge.
func (p *promGauge) Sub(delta float64, labels ...string) {
	update(func() {
		p.gauge.WithLabelValues(labels...).Sub(delta)
	})
}
