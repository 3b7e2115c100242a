// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package committee

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/pkg/errors"
)

// MaxTotalStake bounds the aggregate stake to keep cumulative sums from
// overflowing in leader selection.
const MaxTotalStake = uint64(1) << 60

// Member is a single committee participant with its stake weight.
type Member struct {
	Address types.Address
	Stake   uint64
}

// Committee is an immutable, stake-weighted membership snapshot, valid from
// its starting round until a later snapshot supersedes it.
type Committee struct {
	startingRound uint64
	members       []Member
	stakes        map[types.Address]uint64
	totalStake    uint64
}

// New validates the member set and returns a committee snapshot taking effect
// at the given round. Members are kept sorted by address so that every replica
// performs leader selection over the identical sequence.
func New(startingRound uint64, members []Member) (*Committee, error) {
	if len(members) == 0 {
		return nil, errors.Errorf("committee for round %d has no members", startingRound)
	}

	c := &Committee{
		startingRound: startingRound,
		members:       make([]Member, len(members)),
		stakes:        make(map[types.Address]uint64, len(members)),
	}
	copy(c.members, members)
	sort.Slice(c.members, func(i, j int) bool {
		return c.members[i].Address < c.members[j].Address
	})

	for _, member := range c.members {
		if member.Address == "" {
			return nil, errors.Errorf("committee for round %d contains an empty address", startingRound)
		}
		if member.Stake == 0 {
			return nil, errors.Errorf("member %s has zero stake", member.Address)
		}
		if _, exists := c.stakes[member.Address]; exists {
			return nil, errors.Errorf("member %s appears twice", member.Address)
		}
		if c.totalStake > MaxTotalStake-member.Stake {
			return nil, errors.Errorf("total stake exceeds %d", MaxTotalStake)
		}
		c.stakes[member.Address] = member.Stake
		c.totalStake += member.Stake
	}

	return c, nil
}

// StartingRound returns the first round this snapshot is valid for.
func (c *Committee) StartingRound() uint64 {
	return c.startingRound
}

// Members returns a copy of the member set, sorted by address.
func (c *Committee) Members() []Member {
	members := make([]Member, len(c.members))
	copy(members, c.members)
	return members
}

// Size returns the number of members.
func (c *Committee) Size() int {
	return len(c.members)
}

// IsMember reports whether the address belongs to this committee.
func (c *Committee) IsMember(address types.Address) bool {
	_, ok := c.stakes[address]
	return ok
}

// Stake returns the stake of the given member, or zero for a non-member.
func (c *Committee) Stake(address types.Address) uint64 {
	return c.stakes[address]
}

// TotalStake returns the aggregate stake of all members.
func (c *Committee) TotalStake() uint64 {
	return c.totalStake
}

// QuorumThreshold returns the minimum stake a quorum must carry, strictly
// above two thirds of the total stake.
func (c *Committee) QuorumThreshold() uint64 {
	return c.totalStake*2/3 + 1
}

// LeaderFor deterministically selects the leader for the given round.
// The selection is stake-weighted: the round number and the sorted member set
// seed a digest, and the digest picks a point on the cumulative stake line.
// No external entropy is involved, so every honest replica resolves the same
// leader for the same round and snapshot.
func (c *Committee) LeaderFor(round uint64) (types.Address, error) {
	if len(c.members) == 0 {
		return "", errors.Errorf("cannot select a leader from an empty committee")
	}

	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], round)
	h.Write(buf[:])
	for _, member := range c.members {
		h.Write([]byte(member.Address))
		binary.BigEndian.PutUint64(buf[:], member.Stake)
		h.Write(buf[:])
	}
	seed := h.Sum(nil)

	target := binary.BigEndian.Uint64(seed[:8]) % c.totalStake
	var cumulative uint64
	for _, member := range c.members {
		cumulative += member.Stake
		if target < cumulative {
			return member.Address, nil
		}
	}
	// Unreachable: target is strictly below the total stake.
	return c.members[len(c.members)-1].Address, nil
}
