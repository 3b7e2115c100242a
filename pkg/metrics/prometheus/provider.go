/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	bft "github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
)

// Provider creates Prometheus-backed metric instruments and registers them
// with the given registerer.
type Provider struct {
	Registerer prometheus.Registerer
}

// NewProvider returns a provider registering with the default registerer.
func NewProvider() *Provider {
	return &Provider{Registerer: prometheus.DefaultRegisterer}
}

func (p *Provider) NewCounter(o bft.CounterOpts) bft.Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	p.Registerer.MustRegister(vec)
	return &Counter{vec: vec, labelValues: noLabels(o.LabelNames)}
}

func (p *Provider) NewGauge(o bft.GaugeOpts) bft.Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	p.Registerer.MustRegister(vec)
	return &Gauge{vec: vec, labelValues: noLabels(o.LabelNames)}
}

func (p *Provider) NewHistogram(o bft.HistogramOpts) bft.Histogram {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
		Buckets:   o.Buckets,
	}, o.LabelNames)
	p.Registerer.MustRegister(vec)
	return &Histogram{vec: vec, labelValues: noLabels(o.LabelNames)}
}

// noLabels returns usable default label values for instruments updated
// without With.
func noLabels(labelNames []string) []string {
	return make([]string, len(labelNames))
}

type Counter struct {
	vec         *prometheus.CounterVec
	labelValues []string
}

func (c *Counter) Add(delta float64) {
	c.vec.WithLabelValues(c.labelValues...).Add(delta)
}

func (c *Counter) With(labelValues ...string) bft.Counter {
	return &Counter{vec: c.vec, labelValues: labelValues}
}

type Gauge struct {
	vec         *prometheus.GaugeVec
	labelValues []string
}

func (g *Gauge) Add(delta float64) {
	g.vec.WithLabelValues(g.labelValues...).Add(delta)
}

func (g *Gauge) Set(value float64) {
	g.vec.WithLabelValues(g.labelValues...).Set(value)
}

func (g *Gauge) With(labelValues ...string) bft.Gauge {
	return &Gauge{vec: g.vec, labelValues: labelValues}
}

type Histogram struct {
	vec         *prometheus.HistogramVec
	labelValues []string
}

func (h *Histogram) Observe(value float64) {
	h.vec.WithLabelValues(h.labelValues...).Observe(value)
}

func (h *Histogram) With(labelValues ...string) bft.Histogram {
	return &Histogram{vec: h.vec, labelValues: labelValues}
}
