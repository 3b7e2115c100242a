// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	"context"
	"sync"

	algorithm "github.com/MethBlue123/snarkOS/internal/bft"
	"github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/MethBlue123/snarkOS/pkg/storage"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/pkg/errors"
)

// BFT orchestrates leader tracking and anchor commits over the certificate
// DAG. It composes the Primary and owns the long-running certificate intake
// task.
type BFT struct {
	logger      api.Logger
	config      Configuration
	primary     *Primary
	application api.Application
	metrics     *MetricsBFT

	// dag is owned by the certificate intake task.
	dag *algorithm.DAG
	// lastIntakeRound tracks round boundaries; owned by the intake task.
	lastIntakeRound uint64

	// leaderCertificate is the certificate of the previous round's leader,
	// nil when the leader was absent. Read by external callers, written by
	// the consensus task.
	leaderLock        sync.RWMutex
	leaderCertificate *types.BatchCertificate

	tasks        *taskRegistry
	shutdownOnce sync.Once
}

// New initializes a new instance of the BFT. It fails if the Primary cannot
// be initialized.
func New(store *storage.Storage, acc api.Signer, config Configuration) (*BFT, error) {
	config = config.withDefaults()
	primary, err := NewPrimary(store, acc, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed initializing the primary")
	}

	return &BFT{
		logger:      config.Logger,
		config:      config,
		primary:     primary,
		application: config.Application,
		metrics:     NewMetricsBFT(metricsProvider(config)),
		dag:         algorithm.NewDAG(config.Logger),
		tasks:       newTaskRegistry(),
	}, nil
}

// Run wires the primary channels, starts the certificate intake task, and
// returns once startup completes.
func (b *BFT) Run(sender PrimarySender, receiver PrimaryReceiver) error {
	b.logger.Infof("Starting the BFT instance...")
	bftSender, bftReceiver := NewBFTChannels(b.config.ChannelSize)
	if err := b.primary.Run(sender, receiver, bftSender); err != nil {
		return errors.Wrap(err, "failed starting the primary")
	}
	b.startHandlers(bftReceiver)
	return nil
}

// Primary returns the primary.
func (b *BFT) Primary() *Primary {
	return b.primary
}

// Storage returns the storage.
func (b *BFT) Storage() *storage.Storage {
	return b.primary.Storage()
}

// Leader returns the leader of the previous round, if one was present.
func (b *BFT) Leader() (types.Address, bool) {
	b.leaderLock.RLock()
	defer b.leaderLock.RUnlock()

	if b.leaderCertificate == nil {
		return "", false
	}
	return b.leaderCertificate.Author, true
}

// LeaderCertificate returns the certificate of the leader from the previous
// round, or nil if one was not present.
func (b *BFT) LeaderCertificate() *types.BatchCertificate {
	b.leaderLock.RLock()
	defer b.leaderLock.RUnlock()

	return b.leaderCertificate
}

func (b *BFT) setLeaderCertificate(certificate *types.BatchCertificate) {
	b.leaderLock.Lock()
	defer b.leaderLock.Unlock()

	b.leaderCertificate = certificate
}

// UpdateLeaderCertificate updates the leader certificate to the previous round.
//
// This method runs on every even round, by determining the leader of the
// previous round and setting the leader certificate to their certificate in
// the previous round, if they were present. On odd rounds it is a no-op.
// A missing committee is a bootstrap fault: the error propagates and the
// stored leader certificate is left untouched.
func (b *BFT) UpdateLeaderCertificate() error {
	currentRound := b.Storage().CurrentRound()
	if currentRound%2 != 0 {
		return nil
	}

	previousRound := currentRound
	if previousRound > 0 {
		previousRound--
	}
	previousCertificates := b.Storage().GetCertificatesForRound(previousRound)
	if len(previousCertificates) == 0 {
		b.setLeaderCertificate(nil)
		return nil
	}

	com, ok := b.Storage().GetCommittee(b.committeeRoundFor(currentRound))
	if !ok {
		return errors.Errorf("failed to retrieve the committee for round %d", b.committeeRoundFor(currentRound))
	}
	leader, err := com.LeaderFor(currentRound)
	if err != nil {
		return err
	}

	var leaderCertificate *types.BatchCertificate
	for _, certificate := range previousCertificates {
		if certificate.Author == leader {
			leaderCertificate = certificate
			break
		}
	}
	b.setLeaderCertificate(leaderCertificate)
	return nil
}

// committeeRoundFor applies the leader committee policy: which snapshot
// resolves the previous round's leader.
func (b *BFT) committeeRoundFor(currentRound uint64) uint64 {
	if b.config.LeaderCommitteePolicy == PreviousRoundCommittee && currentRound > 0 {
		return currentRound - 1
	}
	return currentRound
}

// processCertificateFromPrimary stores the certificate in the DAG, refreshes
// leader tracking on round boundaries, and attempts to commit an anchor.
func (b *BFT) processCertificateFromPrimary(certificate *types.BatchCertificate) error {
	if err := b.dag.Insert(certificate); err != nil {
		return err
	}

	currentRound := b.Storage().CurrentRound()
	if currentRound != b.lastIntakeRound {
		b.lastIntakeRound = currentRound
		if err := b.UpdateLeaderCertificate(); err != nil {
			return err
		}
	}

	return b.tryCommit(certificate)
}

// tryCommit attempts an anchor commit after a vote-round certificate arrived.
// The anchor candidate of an even round R is the certificate authored in
// round R-1 by the leader resolved for R; the round-R certificates referencing
// it are its votes. Quorum stake behind the votes confirms the anchor.
func (b *BFT) tryCommit(certificate *types.BatchCertificate) error {
	voteRound := certificate.Round
	if voteRound == 0 || voteRound%2 != 0 {
		return nil
	}
	anchorRound := voteRound - 1

	com, ok := b.Storage().GetCommittee(b.committeeRoundFor(voteRound))
	if !ok {
		return errors.Errorf("failed to retrieve the committee for round %d", b.committeeRoundFor(voteRound))
	}
	leader, err := com.LeaderFor(voteRound)
	if err != nil {
		return err
	}

	anchor, ok := b.dag.GetCertificateForRound(anchorRound, leader)
	if !ok {
		// The leader was absent in the anchor round.
		return nil
	}
	if b.dag.IsCommitted(anchor.ID()) {
		return nil
	}
	stake := b.dag.StakeBehindCertificate(anchor.ID(), voteRound, com)
	if stake < com.QuorumThreshold() {
		return nil
	}

	b.commitAnchor(anchor)
	return nil
}

// commitAnchor commits the anchor and its causal history, in deterministic
// order, and delivers the subdag to the application.
func (b *BFT) commitAnchor(anchor *types.BatchCertificate) {
	ordered := b.dag.OrderSubdag(anchor)
	b.logger.Infof("Committing anchor %s at round %d with %d certificates",
		anchor.ID(), anchor.Round, len(ordered))

	b.metrics.CountOfCommittedCertificates.Add(float64(len(ordered)))
	b.metrics.LastCommittedRound.Set(float64(anchor.Round))
	b.metrics.CommittedSubdagSize.Observe(float64(len(ordered)))

	if b.application == nil {
		return
	}
	b.application.Deliver(&types.Subdag{
		Anchor:       anchor,
		Certificates: ordered,
	})
}

// startHandlers starts the BFT handlers.
func (b *BFT) startHandlers(receiver *BFTReceiver) {
	certificateCh := receiver.CertificateCh

	// Process the certificates from the primary, one at a time, in
	// admission order. A failing certificate is logged and skipped.
	b.spawn("certificate-intake", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case certificate, ok := <-certificateCh:
				if !ok {
					return
				}
				if err := b.processCertificateFromPrimary(certificate); err != nil {
					b.logger.Warnf("Cannot process certificate from primary: %v", err)
				}
			}
		}
	})
}

// spawn runs a long-running task and registers its cancellation handle.
func (b *BFT) spawn(name string, task func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	b.tasks.register(name, cancel)
	go task(ctx)
}

// ShutDown shuts down the BFT: the primary drains first, then every tracked
// task is cancelled. Cancellation signals; it does not join.
func (b *BFT) ShutDown() {
	b.shutdownOnce.Do(func() {
		b.logger.Debugf("Shutting down the BFT...")
		b.primary.ShutDown()
		b.tasks.shutdown()
	})
}
