// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus_test

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/MethBlue123/snarkOS/pkg/account"
	"github.com/MethBlue123/snarkOS/pkg/committee"
	"github.com/MethBlue123/snarkOS/pkg/consensus"
	"github.com/MethBlue123/snarkOS/pkg/storage"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runPrimary(t *testing.T, n *network) (*consensus.Primary, consensus.PrimarySender, *consensus.BFTReceiver) {
	store := n.newStorage()
	primary, err := consensus.NewPrimary(store, n.accounts[0], n.config())
	require.NoError(t, err)

	sender, receiver := consensus.NewPrimaryChannels(64)
	bftSender, bftReceiver := consensus.NewBFTChannels(64)
	require.NoError(t, primary.Run(sender, receiver, bftSender))
	t.Cleanup(primary.ShutDown)
	return primary, sender, bftReceiver
}

func expectForwarded(t *testing.T, receiver *consensus.BFTReceiver, expected *types.BatchCertificate) {
	select {
	case forwarded := <-receiver.CertificateCh:
		assert.Equal(t, expected, forwarded)
	case <-time.After(5 * time.Second):
		t.Fatalf("certificate %s was not forwarded", expected.ID())
	}
}

func TestPrimaryAdmitsAndForwards(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	certificate := n.certificate(1, 0, nil)
	sender.CertificateCh <- certificate
	expectForwarded(t, bftReceiver, certificate)

	stored, ok := primary.Storage().GetCertificateForRound(0, certificate.Author)
	require.True(t, ok)
	assert.Equal(t, certificate, stored)
}

func TestPrimaryRejectsNonMemberAuthor(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	intruder := n.certificate(1, 0, nil)
	intruder.Author = "mallory"
	sender.CertificateCh <- intruder

	// A valid certificate behind it is still admitted.
	valid := n.certificate(2, 0, nil)
	sender.CertificateCh <- valid
	expectForwarded(t, bftReceiver, valid)
	assert.False(t, primary.Storage().ContainsCertificate(intruder.ID()))
}

func TestPrimaryRejectsSubQuorumEndorsements(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	// Quorum for 4 equal members is 3; keep only 2 endorsements.
	weak := n.certificate(1, 0, nil)
	weak.Signatures = weak.Signatures[:2]
	sender.CertificateCh <- weak

	valid := n.certificate(2, 0, nil)
	sender.CertificateCh <- valid
	expectForwarded(t, bftReceiver, valid)
	assert.False(t, primary.Storage().ContainsCertificate(weak.ID()))
}

func TestPrimaryRejectsForgedEndorsement(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	forged := n.certificate(1, 0, nil)
	forged.Signatures[0].Value = []byte("not a signature")
	sender.CertificateCh <- forged

	valid := n.certificate(2, 0, nil)
	sender.CertificateCh <- valid
	expectForwarded(t, bftReceiver, valid)
	assert.False(t, primary.Storage().ContainsCertificate(forged.ID()))
}

func TestPrimaryRejectsMissingAuthorEndorsement(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	// The three other members alone reach the quorum of 3, but the author
	// never endorsed their own certificate.
	unendorsed := n.certificate(1, 0, nil)
	signatures := make([]types.Signature, 0, len(unendorsed.Signatures))
	for _, signature := range unendorsed.Signatures {
		if signature.Signer == unendorsed.Author {
			continue
		}
		signatures = append(signatures, signature)
	}
	require.Len(t, signatures, 3)
	unendorsed.Signatures = signatures
	sender.CertificateCh <- unendorsed

	valid := n.certificate(2, 0, nil)
	sender.CertificateCh <- valid
	expectForwarded(t, bftReceiver, valid)
	assert.False(t, primary.Storage().ContainsCertificate(unendorsed.ID()))
}

func TestPrimaryRejectsUnknownAncestry(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)

	orphan := n.certificate(1, 1, []*types.BatchCertificate{
		{Author: n.accounts[0].Address(), Round: 0, BatchDigest: "never admitted"},
	})
	sender.CertificateCh <- orphan

	valid := n.certificate(2, 0, nil)
	sender.CertificateCh <- valid
	expectForwarded(t, bftReceiver, valid)
	assert.False(t, primary.Storage().ContainsCertificate(orphan.ID()))
}

func TestPrimaryWeighsAncestryAgainstPreviousCommittee(t *testing.T) {
	basicLog, err := zap.NewDevelopment()
	require.NoError(t, err)
	logger := basicLog.Sugar()

	accounts := make([]*account.Account, 6)
	publicKeys := make([]ed25519.PublicKey, 6)
	for i := range accounts {
		acc, err := account.NewRandom()
		require.NoError(t, err)
		accounts[i] = acc
		publicKeys[i] = acc.PublicKey()
	}
	member := func(i int) committee.Member {
		return committee.Member{Address: accounts[i].Address(), Stake: 1}
	}

	// Membership rotates at round 1: two of the four genesis members stay,
	// two are replaced.
	oldCommittee, err := committee.New(0, []committee.Member{member(0), member(1), member(2), member(3)})
	require.NoError(t, err)
	newCommittee, err := committee.New(1, []committee.Member{member(2), member(3), member(4), member(5)})
	require.NoError(t, err)

	store, err := storage.New(logger)
	require.NoError(t, err)
	require.NoError(t, store.AddCommittee(oldCommittee))
	require.NoError(t, store.AddCommittee(newCommittee))

	config := consensus.DefaultConfig
	config.Logger = logger
	config.Verifier = account.NewVerifier(publicKeys)
	primary, err := consensus.NewPrimary(store, accounts[0], config)
	require.NoError(t, err)
	sender, receiver := consensus.NewPrimaryChannels(64)
	bftSender, bftReceiver := consensus.NewBFTChannels(64)
	require.NoError(t, primary.Run(sender, receiver, bftSender))
	t.Cleanup(primary.ShutDown)

	sign := func(certificate *types.BatchCertificate, endorsers ...int) {
		id := certificate.ID()
		for _, i := range endorsers {
			certificate.Signatures = append(certificate.Signatures, accounts[i].Sign(id))
		}
	}

	genesis := make([]*types.BatchCertificate, 4)
	previousIDs := make([]string, 4)
	for i := range genesis {
		genesis[i] = &types.BatchCertificate{Author: accounts[i].Address(), Round: 0, BatchDigest: "batch"}
		sign(genesis[i], 0, 1, 2, 3)
		previousIDs[i] = genesis[i].ID()
		sender.CertificateCh <- genesis[i]
		expectForwarded(t, bftReceiver, genesis[i])
	}

	// A round-1 certificate referencing the full genesis round: its ancestor
	// authors hold only 2 stake in the new committee, but 4 in the committee
	// they certified under.
	crossing := &types.BatchCertificate{
		Author:                 accounts[2].Address(),
		Round:                  1,
		BatchDigest:            "batch",
		PreviousCertificateIDs: previousIDs,
	}
	sign(crossing, 2, 3, 4, 5)
	sender.CertificateCh <- crossing
	expectForwarded(t, bftReceiver, crossing)
	assert.True(t, store.ContainsCertificate(crossing.ID()))
}

func TestPrimaryAdvancesRoundOnQuorum(t *testing.T) {
	n := newNetwork(t, 4)
	primary, sender, bftReceiver := runPrimary(t, n)
	store := primary.Storage()

	genesis := n.round(0, nil)
	// Two of four members carry 2 stake, below the quorum of 3.
	for _, certificate := range genesis[:2] {
		sender.CertificateCh <- certificate
		expectForwarded(t, bftReceiver, certificate)
	}
	assert.Equal(t, uint64(0), store.CurrentRound())

	sender.CertificateCh <- genesis[2]
	expectForwarded(t, bftReceiver, genesis[2])
	assert.Equal(t, uint64(1), store.CurrentRound())

	sender.CertificateCh <- genesis[3]
	expectForwarded(t, bftReceiver, genesis[3])
	assert.Equal(t, uint64(1), store.CurrentRound())
}
