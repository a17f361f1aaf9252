// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/limits"
	"github.com/ava-labs/vpvm/storage"
)

var (
	ErrContextClosed = errors.New("execution context closed")
	ErrVerdictFinal  = errors.New("validity predicate already returned a verdict")
	ErrMissingVP     = errors.New("address has no validity predicate")
	ErrRejected      = errors.New("rejected by validity predicate")
)

// Error kinds recorded in results.
const (
	KindNone             = ""
	KindDecode           = "DecodeError"
	KindInvalidKey       = "InvalidKeyFormat"
	KindInvalidSignature = "InvalidSignature"
	KindLogic            = "LogicError"
	KindResource         = "ResourceExceeded"
	KindRecursion        = "RecursionLimitExceeded"
	KindRejected         = "Rejected"
	KindMissingVP        = "MissingVP"
)

// ErrorKind classifies an error that rolled back a transaction.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, limits.ErrRecursionLimitExceeded):
		return KindRecursion
	case errors.Is(err, limits.ErrResourceExceeded):
		return KindResource
	case errors.Is(err, storage.ErrInvalidKeyFormat):
		return KindInvalidKey
	case errors.Is(err, envelope.ErrDecode):
		return KindDecode
	case errors.Is(err, envelope.ErrInvalidSignature):
		return KindInvalidSignature
	case errors.Is(err, ErrMissingVP):
		return KindMissingVP
	case errors.Is(err, ErrRejected):
		return KindRejected
	default:
		// anything else a program returns is treated as explicit logic failure
		return KindLogic
	}
}

// isLogic reports whether [err] was raised deliberately by program logic.
func isLogic(err error) bool {
	return errors.Is(err, host.ErrLogic)
}
