// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus_test

import (
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/MethBlue123/snarkOS/pkg/account"
	"github.com/MethBlue123/snarkOS/pkg/committee"
	"github.com/MethBlue123/snarkOS/pkg/consensus"
	"github.com/MethBlue123/snarkOS/pkg/storage"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// network is a test fixture holding the accounts of an equal-stake committee.
type network struct {
	t         *testing.T
	logger    *zap.SugaredLogger
	accounts  []*account.Account
	committee *committee.Committee
	verifier  *account.Verifier
}

func newNetwork(t *testing.T, size int) *network {
	basicLog, err := zap.NewDevelopment()
	require.NoError(t, err)

	accounts := make([]*account.Account, size)
	members := make([]committee.Member, size)
	publicKeys := make([]ed25519.PublicKey, size)
	for i := 0; i < size; i++ {
		acc, err := account.NewRandom()
		require.NoError(t, err)
		accounts[i] = acc
		members[i] = committee.Member{Address: acc.Address(), Stake: 1}
		publicKeys[i] = acc.PublicKey()
	}

	com, err := committee.New(0, members)
	require.NoError(t, err)

	return &network{
		t:         t,
		logger:    basicLog.Sugar(),
		accounts:  accounts,
		committee: com,
		verifier:  account.NewVerifier(publicKeys),
	}
}

func (n *network) newStorage() *storage.Storage {
	store, err := storage.New(n.logger)
	require.NoError(n.t, err)
	require.NoError(n.t, store.AddCommittee(n.committee))
	return store
}

func (n *network) config() consensus.Configuration {
	config := consensus.DefaultConfig
	config.Logger = n.logger
	config.Verifier = n.verifier
	return config
}

// certificate builds a fully endorsed certificate referencing the given
// previous-round certificates.
func (n *network) certificate(author int, round uint64, previous []*types.BatchCertificate) *types.BatchCertificate {
	previousIDs := make([]string, 0, len(previous))
	for _, certificate := range previous {
		previousIDs = append(previousIDs, certificate.ID())
	}

	certificate := &types.BatchCertificate{
		Author:                 n.accounts[author].Address(),
		Round:                  round,
		BatchDigest:            "batch",
		PreviousCertificateIDs: previousIDs,
	}
	id := certificate.ID()
	for _, acc := range n.accounts {
		certificate.Signatures = append(certificate.Signatures, acc.Sign(id))
	}
	return certificate
}

// round builds one endorsed certificate per member at the given round.
func (n *network) round(round uint64, previous []*types.BatchCertificate) []*types.BatchCertificate {
	certificates := make([]*types.BatchCertificate, 0, len(n.accounts))
	for i := range n.accounts {
		certificates = append(certificates, n.certificate(i, round, previous))
	}
	return certificates
}

// testApplication records the delivered subdags.
type testApplication struct {
	lock    sync.Mutex
	subdags []*types.Subdag
}

func (a *testApplication) Deliver(subdag *types.Subdag) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.subdags = append(a.subdags, subdag)
}

func (a *testApplication) committed() int {
	a.lock.Lock()
	defer a.lock.Unlock()

	return len(a.subdags)
}

// committedIDs flattens the delivered subdags into a single commit sequence.
func (a *testApplication) committedIDs() []string {
	a.lock.Lock()
	defer a.lock.Unlock()

	var ids []string
	for _, subdag := range a.subdags {
		for _, certificate := range subdag.Certificates {
			ids = append(ids, certificate.ID())
		}
	}
	return ids
}
