// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	"github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/MethBlue123/snarkOS/pkg/metrics/disabled"
)

// LeaderCommitteePolicy selects which round's committee snapshot resolves the
// previous round's leader. Membership can change between rounds, so the
// protocol must apply a single unambiguous snapshot; which one is the right
// choice is a deliberate configuration point rather than a fixed rule.
type LeaderCommitteePolicy uint8

const (
	// CurrentRoundCommittee resolves the previous round's leader with the
	// committee valid at the current round. This is the default.
	CurrentRoundCommittee LeaderCommitteePolicy = iota
	// PreviousRoundCommittee resolves the previous round's leader with the
	// committee valid at the previous round itself.
	PreviousRoundCommittee
)

// Configuration defines the parameters needed in order to create an instance of the BFT.
type Configuration struct {
	// Logger records the component logs. Required.
	Logger api.Logger
	// Verifier checks certificate endorsements during admission. Required.
	Verifier api.Verifier
	// Application receives committed subdags. Optional; commits are dropped
	// after logging when unset.
	Application api.Application
	// MetricsProvider creates the metric instruments. Optional; defaults to
	// the disabled provider.
	MetricsProvider api.Provider

	// ChannelSize is the buffer of the certificate channels between the
	// caller, the primary and the BFT.
	ChannelSize int
	// VerificationConcurrency bounds the endorsement signatures verified in
	// parallel while admitting a single certificate.
	VerificationConcurrency int64
	// LeaderCommitteePolicy selects the committee snapshot used to resolve
	// the previous round's leader.
	LeaderCommitteePolicy LeaderCommitteePolicy

	// Dev, when set, marks this instance as a development-mode node with the
	// given ID. It only affects logging.
	Dev *uint16
}

// DefaultConfig contains reasonable values for a node keeping up with a
// committee of a few dozen members. Set the Logger and the Verifier.
var DefaultConfig = Configuration{
	ChannelSize:             8192,
	VerificationConcurrency: 4,
	LeaderCommitteePolicy:   CurrentRoundCommittee,
}

func metricsProvider(c Configuration) api.Provider {
	if c.MetricsProvider != nil {
		return c.MetricsProvider
	}
	return &disabled.Provider{}
}

func (c Configuration) withDefaults() Configuration {
	if c.ChannelSize <= 0 {
		c.ChannelSize = DefaultConfig.ChannelSize
	}
	if c.VerificationConcurrency <= 0 {
		c.VerificationConcurrency = DefaultConfig.VerificationConcurrency
	}
	return c
}
