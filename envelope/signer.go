// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package envelope

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
)

var _ Verifier = (*SECP256K1Verifier)(nil)

// Verifier checks that [sig] over [msg] was produced by [signer].
type Verifier interface {
	Verify(msg, sig []byte, signer ids.ShortID) bool
}

// SECP256K1Verifier recovers the public key from a recoverable secp256k1
// signature and compares its address against the expected signer.
type SECP256K1Verifier struct {
	factory crypto.FactorySECP256K1R
}

func NewSECP256K1Verifier() *SECP256K1Verifier {
	return &SECP256K1Verifier{}
}

func (v *SECP256K1Verifier) Verify(msg, sig []byte, signer ids.ShortID) bool {
	pk, err := v.factory.RecoverPublicKey(msg, sig)
	if err != nil {
		return false
	}
	return pk.Address() == signer
}

// Sign builds an envelope for [payload] signed by [key].
func Sign(key crypto.PrivateKey, payload []byte, present bool) (*SignedEnvelope, error) {
	sig, err := key.Sign(SigningBytes(payload, present))
	if err != nil {
		return nil, err
	}
	if !present {
		return Empty(sig), nil
	}
	return New(payload, sig), nil
}
