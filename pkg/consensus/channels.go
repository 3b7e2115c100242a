// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	"github.com/MethBlue123/snarkOS/pkg/types"
)

// PrimarySender is the caller half of the primary channels: certificates
// written to it enter the admission pipeline.
type PrimarySender struct {
	CertificateCh chan<- *types.BatchCertificate
}

// PrimaryReceiver is the primary half of the primary channels.
type PrimaryReceiver struct {
	CertificateCh <-chan *types.BatchCertificate
}

// NewPrimaryChannels creates the channel pair connecting the caller to the
// primary. Closing the sender side terminates the admission worker after a
// drain.
func NewPrimaryChannels(size int) (PrimarySender, PrimaryReceiver) {
	certificateCh := make(chan *types.BatchCertificate, size)
	return PrimarySender{CertificateCh: certificateCh}, PrimaryReceiver{CertificateCh: certificateCh}
}

// BFTSender is the primary half of the BFT channels: every certificate the
// primary admits is forwarded through it, in admission order.
type BFTSender struct {
	CertificateCh chan<- *types.BatchCertificate
}

// BFTReceiver is the BFT half of the BFT channels, consumed by the
// certificate intake task.
type BFTReceiver struct {
	CertificateCh <-chan *types.BatchCertificate
}

// NewBFTChannels creates the channel pair connecting the primary to the BFT.
func NewBFTChannels(size int) (*BFTSender, *BFTReceiver) {
	certificateCh := make(chan *types.BatchCertificate, size)
	return &BFTSender{CertificateCh: certificateCh}, &BFTReceiver{CertificateCh: certificateCh}
}
