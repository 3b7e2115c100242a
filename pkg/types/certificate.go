// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package types

import (
	"encoding/asn1"
	"fmt"
)

// BatchCertificate states that its author vouches for a batch in a round,
// having observed quorum-many certificates from the previous round.
// A well-formed DAG holds at most one certificate per (author, round).
// Certificates are immutable once admitted to storage.
type BatchCertificate struct {
	Author      Address
	Round       uint64
	BatchDigest string
	// PreviousCertificateIDs are the DAG edges to the prior round.
	PreviousCertificateIDs []string
	// Signatures are the quorum endorsements over the certificate ID.
	Signatures []Signature
}

type certificatePreimage struct {
	Author                 string `asn1:"utf8"`
	Round                  int64
	BatchDigest            string   `asn1:"utf8"`
	PreviousCertificateIDs []string `asn1:"omitempty"`
}

// ID returns the hex digest identifying this certificate.
// Endorsement signatures are excluded, so the ID is what the endorsers sign.
func (c *BatchCertificate) ID() string {
	rawBytes, err := asn1.Marshal(certificatePreimage{
		Author:                 string(c.Author),
		Round:                  int64(c.Round),
		BatchDigest:            c.BatchDigest,
		PreviousCertificateIDs: c.PreviousCertificateIDs,
	})
	if err != nil {
		panic(fmt.Sprintf("failed marshaling certificate: %v", err))
	}

	return computeDigest(rawBytes)
}

// References reports whether this certificate links to the given previous
// round certificate ID.
func (c *BatchCertificate) References(id string) bool {
	for _, previousID := range c.PreviousCertificateIDs {
		if previousID == id {
			return true
		}
	}
	return false
}

// Signers returns the distinct endorser addresses.
func (c *BatchCertificate) Signers() []Address {
	seen := make(map[Address]bool, len(c.Signatures))
	signers := make([]Address, 0, len(c.Signatures))
	for _, signature := range c.Signatures {
		if seen[signature.Signer] {
			continue
		}
		seen[signature.Signer] = true
		signers = append(signers, signature.Signer)
	}
	return signers
}

func (c *BatchCertificate) String() string {
	return fmt.Sprintf("certificate %s from %s at round %d", c.ID(), c.Author, c.Round)
}
