//go:build linux && amd64

package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sun-lingyu/MIT6.S081/kernel/mm/pmm"
)

const metricsNamespace = "pagesim"

type metrics struct {
	registry *prometheus.Registry

	allocs    prometheus.Counter
	frees     prometheus.Counter
	exhausted prometheus.Counter
	steals    prometheus.Gauge
	freePages *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		allocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "allocs_total",
			Help:      "Pages obtained from the pool by workers.",
		}),
		frees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frees_total",
			Help:      "Pages returned to the pool by workers.",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exhausted_total",
			Help:      "Allocation attempts that found every free list empty.",
		}),
		steals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "steals",
			Help:      "Pages taken from another core's free list, as reported by the pool.",
		}),
		freePages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "free_pages",
			Help:      "Length of each per-core free list.",
		}, []string{"core"}),
	}

	m.registry.MustRegister(m.allocs, m.frees, m.exhausted, m.steals, m.freePages)
	return m
}

// observe records a pool snapshot.
func (m *metrics) observe(stats pmm.Stats, ncpu int) {
	m.steals.Set(float64(stats.Steals))
	for core := 0; core < ncpu; core++ {
		m.freePages.WithLabelValues(strconv.Itoa(core)).Set(float64(stats.Free[core]))
	}
}

// writeTo dumps all metrics to file in the text exposition format.
func (m *metrics) writeTo(file string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(file, m.registry), "write metrics to %q", file)
}
