// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/ava-labs/vpvm/envelope"
)

// MaxDecimalPlaces of an Amount's whole-token representation.
const MaxDecimalPlaces = 6

const amountLen = 8

var (
	ErrOverflow            = errors.New("amount overflow")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")

	scale = decimal.New(1, MaxDecimalPlaces)
)

// Amount is a fixed-point unsigned quantity counted in micro units.
type Amount uint64

// maxWhole is the largest whole token count an Amount can hold.
const maxWhole = math.MaxUint64 / 1_000_000

// NewWhole returns [n] whole tokens, or ErrOverflow.
func NewWhole(n uint64) (Amount, error) {
	if n > maxWhole {
		return 0, fmt.Errorf("%w: %d whole tokens", ErrOverflow, n)
	}
	return Amount(n * uint64(scale.IntPart())), nil
}

// Whole returns [n] whole tokens. It is meant for constants and panics on
// overflow; use NewWhole for anything else.
func Whole(n uint64) Amount {
	a, err := NewWhole(n)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAmount parses a decimal string such as "12.5".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	micro := d.Mul(scale)
	switch {
	case micro.IsNegative():
		return 0, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, s)
	case !micro.Equal(micro.Truncate(0)):
		return 0, fmt.Errorf("%w: more than %d decimal places in %s", ErrInvalidAmount, MaxDecimalPlaces, s)
	case micro.Cmp(decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)) > 0:
		return 0, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return Amount(micro.BigInt().Uint64()), nil
}

func (a Amount) String() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -MaxDecimalPlaces).String()
}

// Add returns a + b, failing on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	c := a + b
	if c < a {
		return 0, ErrOverflow
	}
	return c, nil
}

// Sub returns a - b, failing if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, fmt.Errorf("%w: %s < %s", ErrInsufficientBalance, a, b)
	}
	return a - b, nil
}

// Bytes is the storage encoding of [a].
func (a Amount) Bytes() []byte {
	b := make([]byte, amountLen)
	binary.BigEndian.PutUint64(b, uint64(a))
	return b
}

// AmountFromBytes decodes a stored amount.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != amountLen {
		return 0, fmt.Errorf("%w: amount must be %d bytes, got %d", envelope.ErrDecode, amountLen, len(b))
	}
	return Amount(binary.BigEndian.Uint64(b)), nil
}
