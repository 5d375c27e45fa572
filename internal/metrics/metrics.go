// Package metrics exposes Prometheus collectors for the crafting engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple engines never
// collide on the global one. All methods are safe on a nil receiver.
type Collector struct {
	registry *prometheus.Registry

	crafts     *prometheus.CounterVec
	equips     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	clamps     prometheus.Counter
	latency    *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "foundry"
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.crafts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crafts_total",
			Help:      "Committed crafts by role and rarity.",
		},
		[]string{"role", "rarity"},
	)
	c.equips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "equipment_changes_total",
			Help:      "Committed module installs and uninstalls.",
		},
		[]string{"op"},
	)
	c.rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected operations by error code.",
		},
		[]string{"op", "code"},
	)
	c.clamps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bonus_clamps_total",
			Help:      "Uninstalls whose bonus subtraction hit the zero floor. Should stay at 0.",
		},
	)
	c.latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_seconds",
			Help:      "Engine operation latency including store access.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"op"},
	)

	c.registry.MustRegister(c.crafts, c.equips, c.rejections, c.clamps, c.latency)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Craft(role, rarity string) {
	if c == nil {
		return
	}
	c.crafts.WithLabelValues(role, rarity).Inc()
}

func (c *Collector) Equip(op string) {
	if c == nil {
		return
	}
	c.equips.WithLabelValues(op).Inc()
}

func (c *Collector) Reject(op, code string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(op, code).Inc()
}

func (c *Collector) Clamp() {
	if c == nil {
		return
	}
	c.clamps.Inc()
}

func (c *Collector) Observe(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}
