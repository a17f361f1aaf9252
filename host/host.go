// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package host defines the contract between the engine and the programs it
// runs: the host calls available to transaction bodies and validity
// predicates, and the registry through which programs are looked up by
// reference.
package host

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vpvm/storage"
)

// TxHost is the host API exposed to a transaction body.
type TxHost interface {
	// Read returns the value staged by this transaction if any, else the
	// committed value.
	Read(key storage.Key) ([]byte, bool, error)
	Has(key storage.Key) (bool, error)
	Write(key storage.Key, value []byte) error
	Delete(key storage.Key) error

	// InsertVerifier requires [addr] to validate this transaction even if
	// none of its keys change.
	InsertVerifier(addr ids.ShortID) error

	// Allocate charges [n] bytes of program memory against the budget.
	Allocate(n uint64) error

	// Data returns the verified envelope payload.
	Data() ([]byte, bool)
	// Signer returns the address whose signature over the envelope was
	// verified.
	Signer() ids.ShortID

	// Log is a diagnostic sink; it has no effect on execution.
	Log(msg string, ctx ...interface{})
}

// VPHost is the host API exposed to a validity predicate. It deliberately
// has no way to modify storage.
type VPHost interface {
	// Read returns the post-transaction value of [key].
	Read(key storage.Key) ([]byte, bool, error)
	// ReadPre returns the value of [key] before the transaction.
	ReadPre(key storage.Key) ([]byte, bool, error)

	ChangedKeys() []storage.Key
	Verifiers() []ids.ShortID

	// Eval runs the VP named by [ref] with [input] as its data, against the
	// same snapshots and budget as the caller.
	Eval(ref []byte, input []byte) (bool, error)

	Allocate(n uint64) error
	Data() ([]byte, bool)
	Signer() ids.ShortID
	Log(msg string, ctx ...interface{})
}

// TxFunc is a transaction body.
type TxFunc func(ctx TxHost) error

// VPFunc is a validity predicate run on behalf of [addr].
type VPFunc func(ctx VPHost, addr ids.ShortID) (bool, error)

// Accept is the terminal verdict accepting a transaction.
func Accept() (bool, error) { return true, nil }

// Reject is the terminal verdict rejecting a transaction.
func Reject() (bool, error) { return false, nil }
