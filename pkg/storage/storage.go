// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package storage

import (
	"sync"

	"github.com/MethBlue123/snarkOS/pkg/api"
	"github.com/MethBlue123/snarkOS/pkg/committee"
	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/google/btree"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// DefaultCertificateCacheSize is the number of certificate IDs kept in the
// lookup cache fronting the round index.
const DefaultCertificateCacheSize = 1 << 14

const btreeDegree = 2

type roundCertificates struct {
	round    uint64
	byAuthor map[types.Address]*types.BatchCertificate
}

type committeeEntry struct {
	startingRound uint64
	committee     *committee.Committee
}

// Storage is the round-indexed certificate store and committee registry.
// It is internally synchronized: callers may race with the admission write
// path, and no two reads form a stable snapshot of a round.
type Storage struct {
	logger api.Logger

	lock         sync.RWMutex
	currentRound uint64
	rounds       *btree.BTreeG[*roundCertificates]
	committees   *btree.BTreeG[*committeeEntry]
	// certificatesByID fronts the round index for ID lookups during
	// ancestry checks.
	certificatesByID *lru.Cache
}

// New returns an empty storage starting at round 0.
func New(logger api.Logger) (*Storage, error) {
	cache, err := lru.New(DefaultCertificateCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating certificate cache")
	}

	return &Storage{
		logger: logger,
		rounds: btree.NewG(btreeDegree, func(a, b *roundCertificates) bool {
			return a.round < b.round
		}),
		committees: btree.NewG(btreeDegree, func(a, b *committeeEntry) bool {
			return a.startingRound < b.startingRound
		}),
		certificatesByID: cache,
	}, nil
}

// CurrentRound returns the latest round for which this node holds enough
// certificates to progress.
func (s *Storage) CurrentRound() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.currentRound
}

// AdvanceToRound moves the current round forward. Lower or equal rounds are
// ignored; the current round never moves backwards.
func (s *Storage) AdvanceToRound(round uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if round <= s.currentRound {
		return
	}
	s.logger.Debugf("Advancing from round %d to round %d", s.currentRound, round)
	s.currentRound = round
}

// InsertCertificate admits a certificate. A certificate already admitted for
// the same (author, round) is never replaced.
func (s *Storage) InsertCertificate(certificate *types.BatchCertificate) error {
	if certificate == nil {
		return errors.Errorf("certificate is nil")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.rounds.Get(&roundCertificates{round: certificate.Round})
	if !ok {
		entry = &roundCertificates{
			round:    certificate.Round,
			byAuthor: make(map[types.Address]*types.BatchCertificate),
		}
		s.rounds.ReplaceOrInsert(entry)
	}

	if existing, exists := entry.byAuthor[certificate.Author]; exists {
		return errors.Errorf("a certificate from %s already exists for round %d with ID %s",
			certificate.Author, certificate.Round, existing.ID())
	}

	entry.byAuthor[certificate.Author] = certificate
	s.certificatesByID.Add(certificate.ID(), certificate)
	return nil
}

// GetCertificatesForRound returns the certificates observed for a round.
// An empty result is valid and means none were observed yet.
func (s *Storage) GetCertificatesForRound(round uint64) []*types.BatchCertificate {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.rounds.Get(&roundCertificates{round: round})
	if !ok {
		return nil
	}
	certificates := make([]*types.BatchCertificate, 0, len(entry.byAuthor))
	for _, certificate := range entry.byAuthor {
		certificates = append(certificates, certificate)
	}
	return certificates
}

// GetCertificateForRound returns the certificate authored by the given member
// in the given round, if one was admitted.
func (s *Storage) GetCertificateForRound(round uint64, author types.Address) (*types.BatchCertificate, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.rounds.Get(&roundCertificates{round: round})
	if !ok {
		return nil, false
	}
	certificate, exists := entry.byAuthor[author]
	return certificate, exists
}

// GetCertificate resolves a certificate by ID.
func (s *Storage) GetCertificate(id string) (*types.BatchCertificate, bool) {
	if cached, ok := s.certificatesByID.Get(id); ok {
		return cached.(*types.BatchCertificate), true
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	var found *types.BatchCertificate
	s.rounds.Descend(func(entry *roundCertificates) bool {
		for _, certificate := range entry.byAuthor {
			if certificate.ID() == id {
				found = certificate
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	s.certificatesByID.Add(id, found)
	return found, true
}

// ContainsCertificate reports whether a certificate with the given ID was admitted.
func (s *Storage) ContainsCertificate(id string) bool {
	_, ok := s.GetCertificate(id)
	return ok
}

// AddCommittee registers a committee snapshot. A snapshot with the same
// starting round as an existing one is rejected.
func (s *Storage) AddCommittee(com *committee.Committee) error {
	if com == nil {
		return errors.Errorf("committee is nil")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	entry := &committeeEntry{startingRound: com.StartingRound(), committee: com}
	if _, exists := s.committees.Get(entry); exists {
		return errors.Errorf("a committee starting at round %d is already registered", com.StartingRound())
	}
	s.committees.ReplaceOrInsert(entry)
	return nil
}

// GetCommittee returns the committee valid for the given round: the registered
// snapshot with the greatest starting round not above it. The second return is
// false when no snapshot covers the round.
func (s *Storage) GetCommittee(round uint64) (*committee.Committee, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var found *committee.Committee
	s.committees.DescendLessOrEqual(&committeeEntry{startingRound: round}, func(entry *committeeEntry) bool {
		found = entry.committee
		return false
	})
	if found == nil {
		return nil, false
	}
	return found, true
}
