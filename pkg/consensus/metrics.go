// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	metrics "github.com/MethBlue123/snarkOS/pkg/api"
)

var countOfAdmittedCertificatesOpts = metrics.CounterOpts{
	Namespace:    "consensus",
	Subsystem:    "primary",
	Name:         "count_of_admitted_certificates",
	Help:         "Count of certificates admitted to storage.",
	StatsdFormat: "%{#fqname}",
}

var countOfRejectedCertificatesOpts = metrics.CounterOpts{
	Namespace:    "consensus",
	Subsystem:    "primary",
	Name:         "count_of_rejected_certificates",
	Help:         "Count of certificates rejected during admission.",
	StatsdFormat: "%{#fqname}",
}

var currentRoundOpts = metrics.GaugeOpts{
	Namespace:    "consensus",
	Subsystem:    "primary",
	Name:         "current_round",
	Help:         "The current round of this node.",
	StatsdFormat: "%{#fqname}",
}

// MetricsPrimary encapsulates the metrics of the admission pipeline.
type MetricsPrimary struct {
	CountOfAdmittedCertificates metrics.Counter
	CountOfRejectedCertificates metrics.Counter
	CurrentRound                metrics.Gauge
}

// NewMetricsPrimary creates the metrics of the admission pipeline.
func NewMetricsPrimary(p metrics.Provider) *MetricsPrimary {
	return &MetricsPrimary{
		CountOfAdmittedCertificates: p.NewCounter(countOfAdmittedCertificatesOpts),
		CountOfRejectedCertificates: p.NewCounter(countOfRejectedCertificatesOpts),
		CurrentRound:                p.NewGauge(currentRoundOpts),
	}
}

var countOfCommittedCertificatesOpts = metrics.CounterOpts{
	Namespace:    "consensus",
	Subsystem:    "bft",
	Name:         "count_of_committed_certificates",
	Help:         "Count of certificates committed through anchors.",
	StatsdFormat: "%{#fqname}",
}

var lastCommittedRoundOpts = metrics.GaugeOpts{
	Namespace:    "consensus",
	Subsystem:    "bft",
	Name:         "last_committed_round",
	Help:         "The round of the latest committed anchor.",
	StatsdFormat: "%{#fqname}",
}

var committedSubdagSizeOpts = metrics.HistogramOpts{
	Namespace:    "consensus",
	Subsystem:    "bft",
	Name:         "committed_subdag_size",
	Help:         "Certificates committed per anchor.",
	Buckets:      []float64{1, 2, 4, 8, 16, 32, 64, 128},
	StatsdFormat: "%{#fqname}",
}

// MetricsBFT encapsulates the metrics of the commit layer.
type MetricsBFT struct {
	CountOfCommittedCertificates metrics.Counter
	LastCommittedRound           metrics.Gauge
	CommittedSubdagSize          metrics.Histogram
}

// NewMetricsBFT creates the metrics of the commit layer.
func NewMetricsBFT(p metrics.Provider) *MetricsBFT {
	return &MetricsBFT{
		CountOfCommittedCertificates: p.NewCounter(countOfCommittedCertificatesOpts),
		LastCommittedRound:           p.NewGauge(lastCommittedRoundOpts),
		CommittedSubdagSize:          p.NewHistogram(committedSubdagSizeOpts),
	}
}
