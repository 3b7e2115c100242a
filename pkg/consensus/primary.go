// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	"context"
	"sync"

	"github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/MethBlue123/snarkOS/pkg/committee"
	"github.com/MethBlue123/snarkOS/pkg/storage"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Primary enforces quorum and validity before admitting certificates to
// storage, and forwards every admitted certificate to the BFT in admission
// order.
type Primary struct {
	logger   api.Logger
	config   Configuration
	storage  *storage.Storage
	account  api.Signer
	verifier api.Verifier
	metrics  *MetricsPrimary

	// verificationSlots bounds the endorsement signatures verified in
	// parallel for a single certificate.
	verificationSlots *semaphore.Weighted

	stopOnce   sync.Once
	stopChan   chan struct{}
	workerDone sync.WaitGroup
}

// NewPrimary initializes the admission pipeline. It fails on missing storage,
// a missing account or a missing verifier.
func NewPrimary(store *storage.Storage, acc api.Signer, config Configuration) (*Primary, error) {
	config = config.withDefaults()
	if store == nil {
		return nil, errors.Errorf("storage is nil")
	}
	if acc == nil {
		return nil, errors.Errorf("account is nil")
	}
	if config.Logger == nil {
		return nil, errors.Errorf("logger is nil")
	}
	if config.Verifier == nil {
		return nil, errors.Errorf("verifier is nil")
	}

	return &Primary{
		logger:            config.Logger,
		config:            config,
		storage:           store,
		account:           acc,
		verifier:          config.Verifier,
		metrics:           NewMetricsPrimary(metricsProvider(config)),
		verificationSlots: semaphore.NewWeighted(config.VerificationConcurrency),
		stopChan:          make(chan struct{}),
	}, nil
}

// Run starts the admission worker. It returns once startup completes.
func (p *Primary) Run(sender PrimarySender, receiver PrimaryReceiver, bftSender *BFTSender) error {
	if receiver.CertificateCh == nil {
		return errors.Errorf("primary receiver has no certificate channel")
	}
	if p.config.Dev != nil {
		p.logger.Infof("Starting the primary instance as development node %d...", *p.config.Dev)
	} else {
		p.logger.Infof("Starting the primary instance...")
	}

	p.workerDone.Add(1)
	go p.admissionWorker(receiver, bftSender)
	return nil
}

// Storage returns the storage this primary admits into.
func (p *Primary) Storage() *storage.Storage {
	return p.storage
}

// Account returns the node account this primary signs with.
func (p *Primary) Account() api.Signer {
	return p.account
}

// ShutDown drains the admission worker and stops it. In-flight certificates
// already buffered on the inbound channel are processed before returning.
func (p *Primary) ShutDown() {
	p.stopOnce.Do(func() {
		p.logger.Infof("Shutting down the primary...")
		close(p.stopChan)
		p.workerDone.Wait()
	})
}

func (p *Primary) admissionWorker(receiver PrimaryReceiver, bftSender *BFTSender) {
	defer p.workerDone.Done()

	for {
		select {
		case <-p.stopChan:
			p.drain(receiver, bftSender)
			return
		case certificate, ok := <-receiver.CertificateCh:
			if !ok {
				return
			}
			p.admit(certificate, bftSender)
		}
	}
}

// drain processes whatever the caller already enqueued before shutdown.
func (p *Primary) drain(receiver PrimaryReceiver, bftSender *BFTSender) {
	for {
		select {
		case certificate, ok := <-receiver.CertificateCh:
			if !ok {
				return
			}
			p.admit(certificate, bftSender)
		default:
			return
		}
	}
}

func (p *Primary) admit(certificate *types.BatchCertificate, bftSender *BFTSender) {
	if err := p.processCertificate(certificate); err != nil {
		p.metrics.CountOfRejectedCertificates.Add(1)
		p.logger.Warnf("Cannot admit certificate: %v", err)
		return
	}
	p.metrics.CountOfAdmittedCertificates.Add(1)
	if bftSender != nil {
		bftSender.CertificateCh <- certificate
	}
}

// processCertificate validates a certificate against its round's committee
// and admits it to storage, advancing the current round when the certificate
// completes a quorum.
func (p *Primary) processCertificate(certificate *types.BatchCertificate) error {
	if certificate == nil {
		return errors.Errorf("certificate is nil")
	}

	com, ok := p.storage.GetCommittee(certificate.Round)
	if !ok {
		return errors.Errorf("no committee is registered for round %d", certificate.Round)
	}
	if !com.IsMember(certificate.Author) {
		return errors.Errorf("author %s is not a member of the committee for round %d",
			certificate.Author, certificate.Round)
	}
	if err := p.verifyEndorsements(certificate, com); err != nil {
		return err
	}
	if err := p.verifyAncestry(certificate); err != nil {
		return err
	}

	if err := p.storage.InsertCertificate(certificate); err != nil {
		return err
	}
	p.logger.Debugf("Admitted %s", certificate)
	p.tryAdvanceRound()
	return nil
}

// verifyEndorsements checks every endorsement signature and requires quorum
// stake behind the certificate, the author's own endorsement included.
func (p *Primary) verifyEndorsements(certificate *types.BatchCertificate, com *committee.Committee) error {
	id := certificate.ID()

	group, ctx := errgroup.WithContext(context.Background())
	for _, signature := range certificate.Signatures {
		signature := signature
		group.Go(func() error {
			if err := p.verificationSlots.Acquire(ctx, 1); err != nil {
				return err
			}
			defer p.verificationSlots.Release(1)
			return p.verifier.VerifySignature(signature, id)
		})
	}
	if err := group.Wait(); err != nil {
		return errors.Wrapf(err, "certificate %s carries an invalid endorsement", id)
	}

	var stake uint64
	var authorEndorsed bool
	for _, signer := range certificate.Signers() {
		if !com.IsMember(signer) {
			return errors.Errorf("endorser %s of certificate %s is not a committee member", signer, id)
		}
		if signer == certificate.Author {
			authorEndorsed = true
		}
		stake += com.Stake(signer)
	}
	if !authorEndorsed {
		return errors.Errorf("certificate %s is missing the endorsement of its author %s", id, certificate.Author)
	}
	if stake < com.QuorumThreshold() {
		return errors.Errorf("certificate %s carries %d stake, quorum is %d", id, stake, com.QuorumThreshold())
	}
	return nil
}

// verifyAncestry requires the certificate to reference stored previous-round
// certificates whose authors carry quorum stake. The ancestors were produced
// under the previous round's committee, so their stake is weighed against that
// snapshot. Round 0 certificates carry no references.
func (p *Primary) verifyAncestry(certificate *types.BatchCertificate) error {
	if certificate.Round == 0 {
		return nil
	}
	previousRound := certificate.Round - 1
	com, ok := p.storage.GetCommittee(previousRound)
	if !ok {
		return errors.Errorf("no committee is registered for round %d", previousRound)
	}

	var stake uint64
	seen := make(map[types.Address]bool)
	for _, previousID := range certificate.PreviousCertificateIDs {
		previous, ok := p.storage.GetCertificate(previousID)
		if !ok {
			return errors.Errorf("certificate %s references unknown certificate %s", certificate.ID(), previousID)
		}
		if previous.Round != previousRound {
			return errors.Errorf("certificate %s references certificate %s of round %d, expected round %d",
				certificate.ID(), previousID, previous.Round, previousRound)
		}
		if seen[previous.Author] {
			continue
		}
		seen[previous.Author] = true
		stake += com.Stake(previous.Author)
	}
	if stake < com.QuorumThreshold() {
		return errors.Errorf("certificate %s references %d stake from round %d, quorum is %d",
			certificate.ID(), stake, previousRound, com.QuorumThreshold())
	}
	return nil
}

// tryAdvanceRound moves the current round forward while the now-current round
// holds quorum stake.
func (p *Primary) tryAdvanceRound() {
	for {
		currentRound := p.storage.CurrentRound()
		com, ok := p.storage.GetCommittee(currentRound)
		if !ok {
			return
		}

		var stake uint64
		for _, certificate := range p.storage.GetCertificatesForRound(currentRound) {
			stake += com.Stake(certificate.Author)
		}
		if stake < com.QuorumThreshold() {
			return
		}
		p.storage.AdvanceToRound(currentRound + 1)
		p.metrics.CurrentRound.Set(float64(currentRound + 1))
	}
}
