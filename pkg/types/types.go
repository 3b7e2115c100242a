// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// Address identifies a committee member. Addresses order lexicographically,
// which is the deterministic tie-break among same-round certificates.
type Address string

// Signature is an endorsement over a certificate ID.
// Its value is opaque to this core and verified through api.Verifier.
type Signature struct {
	Signer Address
	Value  []byte
}

func computeDigest(rawBytes []byte) string {
	h := sha256.New()
	h.Write(rawBytes)
	digest := h.Sum(nil)
	return hex.EncodeToString(digest)
}
