// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vpvm/envelope"
)

const (
	maxTxSize  = envelope.MaxSize + 1024
	addressLen = 20
)

var (
	errEmptyCode   = errors.New("transaction code reference is empty")
	errTxTrailing  = errors.New("trailing bytes after transaction")
	errTxTooLarge  = errors.New("transaction too large")
	errNilEnvelope = errors.New("nil envelope")
)

// Tx is a transaction: the name of the program to run, the address that
// signed it and the encoded envelope carrying its data.
type Tx struct {
	Code     string
	Signer   ids.ShortID
	Envelope []byte

	id    ids.ID
	bytes []byte
}

// NewTx builds and encodes a transaction running [code] over [env].
func NewTx(code string, signer ids.ShortID, env *envelope.SignedEnvelope) (*Tx, error) {
	if env == nil {
		return nil, errNilEnvelope
	}
	envBytes, err := envelope.Encode(env)
	if err != nil {
		return nil, err
	}
	tx := &Tx{Code: code, Signer: signer, Envelope: envBytes}
	p := wrappers.Packer{MaxSize: maxTxSize}
	p.PackStr(tx.Code)
	p.PackFixedBytes(tx.Signer[:])
	p.PackBytes(tx.Envelope)
	if p.Errored() {
		return nil, p.Err
	}
	tx.initialize(p.Bytes)
	return tx, nil
}

// ParseTx decodes a transaction; malformed input wraps envelope.ErrDecode.
func ParseTx(b []byte) (*Tx, error) {
	if len(b) > maxTxSize {
		return nil, fmt.Errorf("%w: %s", envelope.ErrDecode, errTxTooLarge)
	}
	p := wrappers.Packer{Bytes: b, MaxSize: maxTxSize}
	tx := &Tx{}
	tx.Code = p.UnpackStr()
	copy(tx.Signer[:], p.UnpackFixedBytes(addressLen))
	tx.Envelope = p.UnpackBytes()
	switch {
	case p.Errored():
		return nil, fmt.Errorf("%w: tx: %s", envelope.ErrDecode, p.Err)
	case p.Offset != len(b):
		return nil, fmt.Errorf("%w: %s", envelope.ErrDecode, errTxTrailing)
	case tx.Code == "":
		return nil, fmt.Errorf("%w: %s", envelope.ErrDecode, errEmptyCode)
	}
	tx.initialize(b)
	return tx, nil
}

func (tx *Tx) initialize(b []byte) {
	tx.bytes = b
	tx.id = hashing.ComputeHash256Array(b)
}

// TxID is the SHA-256 hash of the encoded bytes of a transaction.
func TxID(b []byte) ids.ID { return hashing.ComputeHash256Array(b) }

func (tx *Tx) ID() ids.ID    { return tx.id }
func (tx *Tx) Bytes() []byte { return tx.bytes }

// SignedEnvelope decodes the envelope of [tx].
func (tx *Tx) SignedEnvelope() (*envelope.SignedEnvelope, error) {
	return envelope.Decode(tx.Envelope)
}
