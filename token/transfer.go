// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/storage"
)

const (
	maxTransferSize = 64 * 1024
	addressLen      = 20
)

var errTransferTrailing = errors.New("trailing bytes after transfer")

// Transfer moves [Amount] of [Token] from [Source] to [Target]. [Key], when
// set, selects a multitoken sub-balance.
type Transfer struct {
	Source   ids.ShortID
	Target   ids.ShortID
	Token    ids.ShortID
	Amount   Amount
	Key      *storage.Key
	Shielded bool
}

// SourceKey and TargetKey are the balance keys touched by [t].
func (t *Transfer) SourceKey() storage.Key { return t.balanceKey(t.Source) }
func (t *Transfer) TargetKey() storage.Key { return t.balanceKey(t.Target) }

func (t *Transfer) balanceKey(owner ids.ShortID) storage.Key {
	if t.Key != nil {
		return MultitokenBalanceKey(t.Token, *t.Key, owner)
	}
	return BalanceKey(t.Token, owner)
}

func (t *Transfer) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: maxTransferSize}
	p.PackFixedBytes(t.Source[:])
	p.PackFixedBytes(t.Target[:])
	p.PackFixedBytes(t.Token[:])
	p.PackLong(uint64(t.Amount))
	p.PackBool(t.Key != nil)
	if t.Key != nil {
		p.PackStr(t.Key.String())
	}
	p.PackBool(t.Shielded)
	if p.Errored() {
		return nil, p.Err
	}
	return p.Bytes, nil
}

// ParseTransfer decodes a Transfer; failures wrap envelope.ErrDecode.
func ParseTransfer(b []byte) (*Transfer, error) {
	p := wrappers.Packer{Bytes: b, MaxSize: maxTransferSize}
	t := &Transfer{}
	copy(t.Source[:], p.UnpackFixedBytes(addressLen))
	copy(t.Target[:], p.UnpackFixedBytes(addressLen))
	copy(t.Token[:], p.UnpackFixedBytes(addressLen))
	t.Amount = Amount(p.UnpackLong())
	hasKey := p.UnpackBool()
	var keyText string
	if hasKey {
		keyText = p.UnpackStr()
	}
	t.Shielded = p.UnpackBool()
	if p.Errored() {
		return nil, fmt.Errorf("%w: transfer: %s", envelope.ErrDecode, p.Err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %s", envelope.ErrDecode, errTransferTrailing)
	}
	if hasKey {
		k, err := storage.Parse(keyText)
		if err != nil {
			return nil, err
		}
		t.Key = &k
	}
	return t, nil
}
