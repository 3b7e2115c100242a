// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package account

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/MethBlue123/snarkOS/pkg/types"
	"github.com/pkg/errors"
)

// Account holds the node identity: the signing key and the address derived
// from it. It implements api.Signer; Verifier verifies what Account signs.
type Account struct {
	privateKey ed25519.PrivateKey
	address    types.Address
}

// New constructs an account from existing key material.
func New(privateKey ed25519.PrivateKey) (*Account, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("private key is %d bytes, expected %d", len(privateKey), ed25519.PrivateKeySize)
	}

	return &Account{
		privateKey: privateKey,
		address:    AddressFromPublicKey(privateKey.Public().(ed25519.PublicKey)),
	}, nil
}

// NewRandom generates a fresh account.
func NewRandom() (*Account, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed generating key")
	}
	return New(privateKey)
}

// AddressFromPublicKey derives the address of a public key.
func AddressFromPublicKey(publicKey ed25519.PublicKey) types.Address {
	digest := sha256.Sum256(publicKey)
	return types.Address(hex.EncodeToString(digest[:]))
}

// Address returns the account address.
func (a *Account) Address() types.Address {
	return a.address
}

// PublicKey returns the verification key of this account.
func (a *Account) PublicKey() ed25519.PublicKey {
	return a.privateKey.Public().(ed25519.PublicKey)
}

// Sign endorses a certificate ID.
func (a *Account) Sign(id string) types.Signature {
	return types.Signature{
		Signer: a.address,
		Value:  ed25519.Sign(a.privateKey, []byte(id)),
	}
}

// Verifier checks endorsement signatures produced by Accounts.
// It resolves signer public keys through the registry the caller supplies.
type Verifier struct {
	keys map[types.Address]ed25519.PublicKey
}

// NewVerifier builds a verifier over the given public keys.
func NewVerifier(publicKeys []ed25519.PublicKey) *Verifier {
	keys := make(map[types.Address]ed25519.PublicKey, len(publicKeys))
	for _, publicKey := range publicKeys {
		keys[AddressFromPublicKey(publicKey)] = publicKey
	}
	return &Verifier{keys: keys}
}

// VerifySignature checks a single endorsement over a certificate ID.
func (v *Verifier) VerifySignature(signature types.Signature, id string) error {
	publicKey, ok := v.keys[signature.Signer]
	if !ok {
		return errors.Errorf("unknown signer %s", signature.Signer)
	}
	if !ed25519.Verify(publicKey, []byte(id), signature.Value) {
		return errors.Errorf("invalid signature from %s", signature.Signer)
	}
	return nil
}
