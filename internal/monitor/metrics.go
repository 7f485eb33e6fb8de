package monitor

import (
	"path"
	"strings"
	"time"

	"github.com/banshee-data/splat.report/internal/cags"
	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/prometheus/client_golang/prometheus"
)

// LoadMetrics holds the Prometheus collectors for one process. Each load
// gets its own registry so the textfile output only carries this run.
type LoadMetrics struct {
	Registry *prometheus.Registry

	FetchDuration *prometheus.HistogramVec
	FetchBytes    *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	LoadDuration  prometheus.Histogram
	Splats        prometheus.Gauge
	Loads         *prometheus.CounterVec
}

// NewLoadMetrics creates and registers the collectors.
func NewLoadMetrics() *LoadMetrics {
	m := &LoadMetrics{
		Registry: prometheus.NewRegistry(),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cags",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching one asset file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		FetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cags",
			Name:      "fetch_bytes_total",
			Help:      "Bytes fetched, by file kind.",
		}, []string{"kind"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cags",
			Name:      "fetch_failures_total",
			Help:      "Failed fetches, by file kind.",
		}, []string{"kind"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cags",
			Name:      "load_duration_seconds",
			Help:      "End-to-end load time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		Splats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cags",
			Name:      "splats",
			Help:      "Splats produced by the last successful load.",
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cags",
			Name:      "loads_total",
			Help:      "Loads by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.FetchDuration, m.FetchBytes, m.FetchFailures, m.LoadDuration, m.Splats, m.Loads)
	return m
}

// ObserveFetches folds a fetch log into the collectors.
func (m *LoadMetrics) ObserveFetches(entries []fetch.Entry) {
	for _, e := range entries {
		kind := fileKind(e.URL)
		m.FetchDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
		if e.Err != nil {
			m.FetchFailures.WithLabelValues(kind).Inc()
			continue
		}
		m.FetchBytes.WithLabelValues(kind).Add(float64(e.Bytes))
	}
}

// ObserveLoad records the outcome of one load. splats is ignored on failure.
func (m *LoadMetrics) ObserveLoad(elapsed time.Duration, splats int, err error) {
	m.LoadDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.Loads.WithLabelValues("failed").Inc()
		return
	}
	m.Loads.WithLabelValues("completed").Inc()
	m.Splats.Set(float64(splats))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *LoadMetrics) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.Registry)
}

// fileKind buckets an asset URL by the part of the asset it carries.
func fileKind(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	name := path.Base(url)
	switch {
	case name == cags.BaseCodebookFile, name == cags.BaseCodesFile:
		return "base"
	case strings.HasSuffix(name, ".codebook.npz"):
		return "layer_codebook"
	case strings.HasSuffix(name, ".codes.npz"):
		return "layer_codes"
	default:
		return "other"
	}
}
