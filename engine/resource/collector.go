package resource

import "github.com/prometheus/client_golang/prometheus"

// Collector exports registry accounting as prometheus gauges so diagnostics can spot leaks.
// It reads the registry on every scrape and holds no state of its own.
type Collector struct {
	reg      Registry
	bytes    *prometheus.Desc
	entries  *prometheus.Desc
	total    *prometheus.Desc
	warnings *prometheus.Desc
}

var _ prometheus.Collector = &Collector{}

// NewCollector creates a Collector for reg. Metric names are prefixed with namespace.
//
// Parameters:
//   - reg: the registry to export
//   - namespace: the metric namespace, e.g. "oxy4d"
//
// Returns:
//   - *Collector: the collector, ready for prometheus.Register
func NewCollector(reg Registry, namespace string) *Collector {
	labels := []string{"scope", "type"}
	return &Collector{
		reg: reg,
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "resource", "bytes"),
			"GPU bytes held by registered resources.",
			labels, nil,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "resource", "entries"),
			"Number of registered resources.",
			labels, nil,
		),
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "resource", "total_bytes"),
			"GPU bytes held across every scope.",
			nil, nil,
		),
		warnings: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "resource", "warnings_total"),
			"Resource misuse warnings reported by the registry.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytes
	ch <- c.entries
	ch <- c.total
	ch <- c.warnings
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	type key struct {
		scope Scope
		typ   Type
	}
	bytes := make(map[key]uint64)
	counts := make(map[key]int)
	for _, s := range c.reg.Scopes() {
		for _, e := range c.reg.Entries(s) {
			k := key{s, e.Type}
			bytes[k] += e.Bytes
			counts[k]++
		}
	}
	for k, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(bytes[k]), string(k.scope), k.typ.String())
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(n), string(k.scope), k.typ.String())
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(c.reg.Bytes()))
	ch <- prometheus.MustNewConstMetric(c.warnings, prometheus.CounterValue, float64(c.reg.Warnings()))
}
