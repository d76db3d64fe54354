package observability

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory is a MetricFactory registering collectors on a
// prometheus.Registerer. Dotted names become underscored.
type PrometheusFactory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

var _ MetricFactory = (*PrometheusFactory)(nil)

// NewPrometheusFactory returns a factory registering on reg, or on the
// default registerer when reg is nil.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{reg: reg, collectors: make(map[string]prometheus.Collector)}
}

func (f *PrometheusFactory) Counter(name string) Counter {
	return register(f, name, func(n string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: n, Help: name})
	})
}

func (f *PrometheusFactory) Histogram(name string) Histogram {
	return register(f, name, func(n string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: n, Help: name, Buckets: prometheus.ExponentialBuckets(1, 2, 8)})
	})
}

func (f *PrometheusFactory) Gauge(name string) Gauge {
	return register(f, name, func(n string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: n, Help: name})
	})
}

// register returns the collector already created under name, or creates and
// registers a new one. A collector another registry owns is reused.
func register[C prometheus.Collector](f *PrometheusFactory, name string, build func(string) C) C {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.collectors[name]; ok {
		return c.(C)
	}
	c := build(metricName(name))
	if err := f.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				c = existing
			}
		}
	}
	f.collectors[name] = c
	return c
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
