/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus_test

import (
	"testing"

	bft "github.com/MethBlue123/snarkOS/pkg/api"
	provider "github.com/MethBlue123/snarkOS/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := &provider.Provider{Registerer: registry}

	counter := p.NewCounter(bft.CounterOpts{
		Namespace: "consensus",
		Subsystem: "bft",
		Name:      "count_of_committed_certificates",
		Help:      "help",
	})
	counter.Add(3)
	counter.Add(2)

	count, err := testutil.GatherAndCount(registry, "consensus_bft_count_of_committed_certificates")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGaugeWithLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := &provider.Provider{Registerer: registry}

	gauge := p.NewGauge(bft.GaugeOpts{
		Namespace:  "consensus",
		Subsystem:  "bft",
		Name:       "last_committed_round",
		Help:       "help",
		LabelNames: []string{"channel"},
	})
	gauge.With("mychannel").Set(7)
	gauge.With("mychannel").Add(1)

	count, err := testutil.GatherAndCount(registry, "consensus_bft_last_committed_round")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := &provider.Provider{Registerer: registry}

	histogram := p.NewHistogram(bft.HistogramOpts{
		Namespace: "consensus",
		Subsystem: "bft",
		Name:      "committed_subdag_size",
		Help:      "help",
		Buckets:   []float64{1, 2, 4},
	})
	histogram.Observe(3)

	count, err := testutil.GatherAndCount(registry, "consensus_bft_committed_subdag_size")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
