// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vpvm/storage"
)

const balanceSeg = "balance"

// BalanceKey is the key holding [owner]'s balance of [token]:
// #token/balance/#owner.
func BalanceKey(token, owner ids.ShortID) storage.Key {
	return storage.NewKey(
		storage.AddressSegment(token),
		storage.StringSegment(balanceSeg),
		storage.AddressSegment(owner),
	)
}

// MultitokenBalanceKey is the balance key of a sub-token [sub] of [token]:
// #token/<sub>/balance/#owner.
func MultitokenBalanceKey(token ids.ShortID, sub storage.Key, owner ids.ShortID) storage.Key {
	return storage.AddressKey(token).
		Join(sub).
		Push(storage.StringSegment(balanceSeg), storage.AddressSegment(owner))
}

// IsBalanceKey returns the token and owner of a (multitoken) balance key.
func IsBalanceKey(key storage.Key) (token, owner ids.ShortID, ok bool) {
	n := key.Len()
	if n < 3 {
		return ids.ShortEmpty, ids.ShortEmpty, false
	}
	token, ok = key.Segment(0).Address()
	if !ok {
		return ids.ShortEmpty, ids.ShortEmpty, false
	}
	if lit, isLit := key.Segment(n - 2).Literal(); !isLit || lit != balanceSeg {
		return ids.ShortEmpty, ids.ShortEmpty, false
	}
	owner, ok = key.Segment(n - 1).Address()
	return token, owner, ok
}
