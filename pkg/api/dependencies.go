// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package api

import (
	"github.com/MethBlue123/snarkOS/pkg/types"
)

// Application receives committed subdags, one per confirmed anchor, in commit order.
type Application interface {
	Deliver(subdag *types.Subdag)
}

// Signer produces endorsement signatures over certificate IDs.
type Signer interface {
	Sign(id string) types.Signature
	Address() types.Address
}

// Verifier checks endorsement signatures over certificate IDs.
// Signature mechanics are external to this core; implementations are opaque.
type Verifier interface {
	VerifySignature(signature types.Signature, id string) error
}

// Logger defines the contract for logging.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Panicf(template string, args ...interface{})
}
