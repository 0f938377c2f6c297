package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder registers one vector per metric name, with the
// label keys taken from the first observation. Callers keep the label
// set stable per name and omit labels they have no value for, so no
// metric ever carries an empty-valued label.
type PrometheusRecorder struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusRecorder() Recorder {
	return NewPrometheusRecorderWith(prometheus.DefaultRegisterer)
}

func NewPrometheusRecorderWith(reg prometheus.Registerer) Recorder {
	return &PrometheusRecorder{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counterVec(name, labelKeys(labels)).With(prometheus.Labels(labels)).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogramVec(name, labelKeys(labels)).With(prometheus.Labels(labels)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) counterVec(name string, keys []string) *prometheus.CounterVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payproof",
			Name:      name + "_total",
			Help:      "payment and proof pipeline event counter",
		},
		keys,
	)
	p.reg.MustRegister(vec)
	p.counters[name] = vec
	return vec
}

func (p *PrometheusRecorder) histogramVec(name string, keys []string) *prometheus.HistogramVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payproof",
			Name:      name + "_seconds",
			Help:      "payment and proof operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		keys,
	)
	p.reg.MustRegister(vec)
	p.histograms[name] = vec
	return vec
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
