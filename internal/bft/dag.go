// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package bft

import (
	"sort"

	"github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/MethBlue123/snarkOS/pkg/committee"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/pkg/errors"
)

// DAG is the local view of the certificate graph used for anchor commits.
// It is not internally synchronized: the certificate intake task is its only
// owner, and state other goroutines need is published by that task elsewhere.
type DAG struct {
	logger             api.Logger
	rounds             map[uint64]map[types.Address]*types.BatchCertificate
	certificatesByID   map[string]*types.BatchCertificate
	committedIDs       map[string]bool
	lastCommittedRound uint64
}

// NewDAG returns an empty DAG.
func NewDAG(logger api.Logger) *DAG {
	return &DAG{
		logger:           logger,
		rounds:           make(map[uint64]map[types.Address]*types.BatchCertificate),
		certificatesByID: make(map[string]*types.BatchCertificate),
		committedIDs:     make(map[string]bool),
	}
}

// Insert adds a certificate to the graph. A second certificate for the same
// (author, round) is rejected, as is one whose ID is already present.
func (d *DAG) Insert(certificate *types.BatchCertificate) error {
	if certificate == nil {
		return errors.Errorf("certificate is nil")
	}
	id := certificate.ID()
	if _, exists := d.certificatesByID[id]; exists {
		return errors.Errorf("certificate %s is already in the DAG", id)
	}

	byAuthor, ok := d.rounds[certificate.Round]
	if !ok {
		byAuthor = make(map[types.Address]*types.BatchCertificate)
		d.rounds[certificate.Round] = byAuthor
	}
	if existing, exists := byAuthor[certificate.Author]; exists {
		return errors.Errorf("author %s already has certificate %s in round %d",
			certificate.Author, existing.ID(), certificate.Round)
	}

	byAuthor[certificate.Author] = certificate
	d.certificatesByID[id] = certificate
	return nil
}

// GetCertificateForRound returns the certificate authored by the given member
// in the given round, if present.
func (d *DAG) GetCertificateForRound(round uint64, author types.Address) (*types.BatchCertificate, bool) {
	certificate, ok := d.rounds[round][author]
	return certificate, ok
}

// Contains reports whether the certificate ID is in the graph.
func (d *DAG) Contains(id string) bool {
	_, ok := d.certificatesByID[id]
	return ok
}

// IsCommitted reports whether the certificate ID was already committed.
func (d *DAG) IsCommitted(id string) bool {
	return d.committedIDs[id]
}

// LastCommittedRound returns the round of the latest committed anchor.
func (d *DAG) LastCommittedRound() uint64 {
	return d.lastCommittedRound
}

// StakeBehindCertificate tallies the stake of the members whose certificates
// in the given round reference the certificate ID. These references are the
// implicit votes electing an anchor.
func (d *DAG) StakeBehindCertificate(id string, round uint64, com *committee.Committee) uint64 {
	var stake uint64
	for author, certificate := range d.rounds[round] {
		if certificate.References(id) {
			stake += com.Stake(author)
		}
	}
	return stake
}

// OrderSubdag walks the graph backward from the anchor, collects every
// reachable certificate that was not committed before, and commits the result
// in deterministic order: round ascending, then author, then ID. Edges to
// certificates this node has not observed are skipped; a later anchor commits
// them once they arrive.
func (d *DAG) OrderSubdag(anchor *types.BatchCertificate) []*types.BatchCertificate {
	var ordered []*types.BatchCertificate
	visited := make(map[string]bool)

	queue := []*types.BatchCertificate{anchor}
	visited[anchor.ID()] = true
	for len(queue) > 0 {
		certificate := queue[0]
		queue = queue[1:]
		if d.committedIDs[certificate.ID()] {
			continue
		}
		ordered = append(ordered, certificate)
		for _, previousID := range certificate.PreviousCertificateIDs {
			if visited[previousID] {
				continue
			}
			visited[previousID] = true
			previous, ok := d.certificatesByID[previousID]
			if !ok {
				d.logger.Debugf("Skipping unobserved ancestor %s of certificate %s", previousID, certificate.ID())
				continue
			}
			queue = append(queue, previous)
		}
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Round != ordered[j].Round {
			return ordered[i].Round < ordered[j].Round
		}
		if ordered[i].Author != ordered[j].Author {
			return ordered[i].Author < ordered[j].Author
		}
		return ordered[i].ID() < ordered[j].ID()
	})

	for _, certificate := range ordered {
		d.committedIDs[certificate.ID()] = true
	}
	if anchor.Round > d.lastCommittedRound {
		d.lastCommittedRound = anchor.Round
	}
	return ordered
}
