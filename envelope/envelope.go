// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package envelope

import (
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// MaxSize bounds the encoded size of an envelope.
const MaxSize = 128 * 1024

var (
	ErrDecode           = errors.New("decode error")
	ErrInvalidSignature = errors.New("signature does not match signer")

	errTrailingBytes = errors.New("trailing bytes")
	errTooLarge      = errors.New("envelope too large")
)

// SignedEnvelope wraps an optional payload with a signature over it.
type SignedEnvelope struct {
	Payload    []byte
	HasPayload bool
	Signature  []byte
}

// New returns an envelope carrying [payload]. A nil payload is still present;
// use Empty for an envelope without one.
func New(payload, signature []byte) *SignedEnvelope {
	return &SignedEnvelope{
		Payload:    append([]byte{}, payload...),
		HasPayload: true,
		Signature:  signatureBytes(signature),
	}
}

// Empty returns an envelope with no payload.
func Empty(signature []byte) *SignedEnvelope {
	return &SignedEnvelope{Signature: signatureBytes(signature)}
}

// Data returns the payload and whether one is present.
func (e *SignedEnvelope) Data() ([]byte, bool) {
	return e.Payload, e.HasPayload
}

// SigningBytes returns the bytes the signature is computed over: the
// encoding of the optional payload, so that an absent payload and an empty
// one never share a signature.
func SigningBytes(payload []byte, present bool) []byte {
	p := wrappers.Packer{MaxSize: MaxSize}
	packOptional(&p, payload, present)
	return p.Bytes
}

// SigningBytes of this envelope.
func (e *SignedEnvelope) SigningBytes() []byte {
	return SigningBytes(e.Payload, e.HasPayload)
}

// Encode returns the canonical length-prefixed encoding of [e].
func Encode(e *SignedEnvelope) ([]byte, error) {
	if len(e.Payload) > math.MaxInt32 || len(e.Signature) > math.MaxInt32 {
		return nil, errTooLarge
	}
	p := wrappers.Packer{MaxSize: MaxSize}
	packOptional(&p, e.Payload, e.HasPayload)
	p.PackBytes(e.Signature)
	if p.Errored() {
		return nil, p.Err
	}
	return p.Bytes, nil
}

// Decode parses an encoded envelope. Any framing problem is ErrDecode.
func Decode(b []byte) (*SignedEnvelope, error) {
	p := wrappers.Packer{Bytes: b, MaxSize: MaxSize}
	env := &SignedEnvelope{}
	env.HasPayload = p.UnpackBool()
	if env.HasPayload {
		env.Payload = copyBytes(p.UnpackBytes())
	}
	env.Signature = signatureBytes(p.UnpackBytes())
	if p.Errored() {
		return nil, fmt.Errorf("%w: envelope: %s", ErrDecode, p.Err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: envelope: %s", ErrDecode, errTrailingBytes)
	}
	return env, nil
}

// Verify checks the envelope signature against [signer]. The payload must
// not be interpreted unless this returns nil.
func Verify(e *SignedEnvelope, v Verifier, signer ids.ShortID) error {
	if !v.Verify(e.SigningBytes(), e.Signature, signer) {
		return ErrInvalidSignature
	}
	return nil
}

func packOptional(p *wrappers.Packer, b []byte, present bool) {
	p.PackBool(present)
	if present {
		p.PackBytes(b)
	}
}

func copyBytes(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}

// signatureBytes copies [b]; an empty signature is always nil.
func signatureBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return copyBytes(b)
}
