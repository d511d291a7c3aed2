package main

import (
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xalloc/alloc"
	"xalloc/container"
	"xalloc/metrics"
	"xalloc/prometheus"
	"xalloc/xlog"
)

// Report summarises a scenario run.
type Report struct {
	Len, Cap int
	Stats    metrics.Snapshot
}

func main() {
	conf, err := LoadConfig(os.Getenv("XALLOC_CONFIG"))
	if err != nil {
		xlog.Write().Fatal("load config", zap.Error(err))
	}
	xlog.Load(&conf.Log)
	defer func() { _ = xlog.Sync() }()
	logger := xlog.Named("example")

	var collector metrics.Collector = metrics.Nop{}
	if conf.Prometheus.Enabled {
		reg := prom.NewRegistry()
		p := metrics.NewProm(reg, "xalloc")
		defer func() { _ = p.Close() }()
		collector = p
		prometheus.Start(conf.Prometheus, reg)
	}

	var report Report
	switch conf.Provider {
	case ProviderGo:
		report, err = run(logger, alloc.GoProvider[int]{}, conf.Scenario, collector)
	case ProviderSizeClass:
		report, err = run(logger, alloc.SizeClassProvider[int]{}, conf.Scenario, collector)
	default:
		report, err = run(logger, alloc.NewArena[int](conf.Arena), conf.Scenario, collector)
	}
	if err != nil {
		logger.Fatal("scenario failed", zap.Error(err))
	}
	logger.Info("successful reallocations",
		zap.Int64("successes", report.Stats.Successes), zap.Int64("attempts", report.Stats.Attempts))
}

// run pushes, pops and shrinks an array on p, logging capacity, size and
// the time each step took.
func run[P alloc.Provider[int]](logger *zap.Logger, p P, sc ScenarioConf, collector metrics.Collector) (Report, error) {
	policy, err := sc.policy()
	if err != nil {
		return Report{}, err
	}
	stats := &metrics.Stats{}
	arr, err := container.NewArray[int](p, sc.Initial,
		container.WithPolicy(policy),
		container.WithCollector(tee{stats, collector}),
		container.WithLogger(logger),
	)
	if err != nil {
		return Report{}, err
	}
	defer arr.Close()

	logger.Info("array created",
		zap.Stringer("capabilities", arr.Capabilities()), zap.Int("capacity", arr.Cap()), zap.Int("size", arr.Len()))
	step := func(name string, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return err
		}
		logger.Info(name,
			zap.Int("capacity", arr.Cap()), zap.Int("size", arr.Len()), zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	for i := range sc.Pushes {
		if err := step("add element", func() error { return arr.PushBack(i + 1) }); err != nil {
			return Report{}, err
		}
	}
	for range min(sc.Pops, arr.Len()) {
		_ = step("remove element", func() error { arr.PopBack(); return nil })
	}
	if err := step("shrink to fit", arr.ShrinkToFit); err != nil {
		return Report{}, err
	}
	return Report{Len: arr.Len(), Cap: arr.Cap(), Stats: stats.Snapshot()}, nil
}

// tee fans events out to two collectors.
type tee [2]metrics.Collector

func (t tee) Attempt(op string) {
	t[0].Attempt(op)
	t[1].Attempt(op)
}

func (t tee) Success(op string) {
	t[0].Success(op)
	t[1].Success(op)
}

func (t tee) Allocation(n int) {
	t[0].Allocation(n)
	t[1].Allocation(n)
}

func (t tee) Release(n int) {
	t[0].Release(n)
	t[1].Release(n)
}

func (t tee) Relocation(n int) {
	t[0].Relocation(n)
	t[1].Relocation(n)
}
