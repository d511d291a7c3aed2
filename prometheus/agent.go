package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"xalloc/xlog"
)

var (
	once    sync.Once
	enabled atomic.Bool
)

// A Config is a prometheus config.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Enabled reports whether Prometheus metrics are enabled.
func Enabled() bool {
	return enabled.Load()
}

// Enable enables Prometheus metrics.
func Enable() {
	enabled.Store(true)
}

// Disable stops metric updates without unregistering anything.
func Disable() {
	enabled.Store(false)
}

// Start enables metrics and serves g on the configured address. Only the
// first call starts a server; later calls return nil.
func Start(c Config, g prom.Gatherer) *http.Server {
	defaultConfig(&c)
	if g == nil {
		g = prom.DefaultGatherer
	}

	var srv *http.Server
	once.Do(func() {
		Enable()
		mux := http.NewServeMux()
		mux.Handle(c.Path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
		srv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", c.Host, c.Port),
			Handler: mux,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				xlog.Write().Error("prometheus: metrics server stopped", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}()
	})
	return srv
}

func defaultConfig(conf *Config) {
	if conf.Path == "" {
		conf.Path = "/metrics"
	}
	if conf.Port == 0 {
		conf.Port = 9101
	}
}
