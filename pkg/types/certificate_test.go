// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package types_test

import (
	"testing"

	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestCertificateID(t *testing.T) {
	certificate := &types.BatchCertificate{
		Author:                 "alice",
		Round:                  4,
		BatchDigest:            "deadbeef",
		PreviousCertificateIDs: []string{"aa", "bb"},
	}

	id := certificate.ID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, certificate.ID())

	// The ID covers the content, not the endorsements.
	endorsed := *certificate
	endorsed.Signatures = []types.Signature{{Signer: "bob", Value: []byte{1, 2, 3}}}
	assert.Equal(t, id, endorsed.ID())

	otherRound := *certificate
	otherRound.Round = 5
	assert.NotEqual(t, id, otherRound.ID())

	otherAuthor := *certificate
	otherAuthor.Author = "bob"
	assert.NotEqual(t, id, otherAuthor.ID())
}

func TestCertificateReferences(t *testing.T) {
	certificate := &types.BatchCertificate{
		Author:                 "alice",
		Round:                  2,
		PreviousCertificateIDs: []string{"aa", "bb"},
	}

	assert.True(t, certificate.References("aa"))
	assert.True(t, certificate.References("bb"))
	assert.False(t, certificate.References("cc"))
}

func TestCertificateSigners(t *testing.T) {
	certificate := &types.BatchCertificate{
		Author: "alice",
		Round:  1,
		Signatures: []types.Signature{
			{Signer: "bob"},
			{Signer: "carol"},
			{Signer: "bob"},
		},
	}

	assert.Equal(t, []types.Address{"bob", "carol"}, certificate.Signers())
}
