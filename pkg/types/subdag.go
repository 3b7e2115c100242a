// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package types

// Subdag is a single commit unit: the anchor certificate together with every
// not-yet-committed certificate reachable from it, ordered by round ascending
// and author ascending within a round.
type Subdag struct {
	Anchor       *BatchCertificate
	Certificates []*BatchCertificate
}

// Round returns the anchor round of this subdag.
func (s *Subdag) Round() uint64 {
	return s.Anchor.Round
}
