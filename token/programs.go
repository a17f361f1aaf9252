// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"math/big"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/storage"
)

const (
	TxTransferName = "tx_transfer"
	VPTokenName    = "vp_token"
	VPUserName     = "vp_user"
)

// Register adds the token programs to [r].
func Register(r *host.Registry) error {
	errs := wrappers.Errs{}
	errs.Add(
		r.RegisterTx(TxTransferName, TxTransfer),
		r.RegisterVP(VPTokenName, VPConservation),
		r.RegisterVP(VPUserName, VPUser),
	)
	return errs.Err
}

// TxTransfer debits the source and credits the target of the Transfer in
// the transaction payload.
func TxTransfer(ctx host.TxHost) error {
	data, ok := ctx.Data()
	if !ok {
		return host.Failf("no transfer data provided")
	}
	t, err := ParseTransfer(data)
	if err != nil {
		return err
	}
	if t.Shielded {
		return host.Failf("shielded transfers are not supported")
	}
	ctx.Log("applying transfer", "source", t.Source, "target", t.Target, "token", t.Token, "amount", t.Amount)

	srcKey := t.SourceKey()
	srcBal, err := ReadBalance(ctx.Read, srcKey)
	if err != nil {
		return err
	}
	srcBal, err = srcBal.Sub(t.Amount)
	if err != nil {
		return &host.LogicError{Msg: err.Error()}
	}
	if err := ctx.Write(srcKey, srcBal.Bytes()); err != nil {
		return err
	}

	dstKey := t.TargetKey()
	dstBal, err := ReadBalance(ctx.Read, dstKey)
	if err != nil {
		return err
	}
	dstBal, err = dstBal.Add(t.Amount)
	if err != nil {
		return &host.LogicError{Msg: err.Error()}
	}
	return ctx.Write(dstKey, dstBal.Bytes())
}

// VPConservation accepts a transaction only if, for every token touched,
// the balances it changed sum to the same total before and after.
func VPConservation(ctx host.VPHost, addr ids.ShortID) (bool, error) {
	var (
		order  []string
		deltas = make(map[string]*big.Int)
	)
	for _, key := range ctx.ChangedKeys() {
		if _, _, ok := IsBalanceKey(key); !ok {
			continue
		}
		pre, err := ReadBalance(ctx.ReadPre, key)
		if err != nil {
			return false, err
		}
		post, err := ReadBalance(ctx.Read, key)
		if err != nil {
			return false, err
		}

		group := balancePrefix(key)
		d, ok := deltas[group]
		if !ok {
			d = new(big.Int)
			deltas[group] = d
			order = append(order, group)
		}
		d.Add(d, new(big.Int).SetUint64(uint64(post)))
		d.Sub(d, new(big.Int).SetUint64(uint64(pre)))
	}
	for _, group := range order {
		if d := deltas[group]; d.Sign() != 0 {
			ctx.Log("balance change does not net to zero", "vp", addr, "token", group, "delta", d)
			return host.Reject()
		}
	}
	return host.Accept()
}

// VPUser guards an account. Debiting one of its balances, or changing any
// other key the account owns, requires the account to have signed the
// transaction. Credits need no signature. Balances must also be conserved,
// which is left to the token validity predicate.
func VPUser(ctx host.VPHost, addr ids.ShortID) (bool, error) {
	authorized := ctx.Signer() == addr
	for _, key := range ctx.ChangedKeys() {
		if _, owner, ok := IsBalanceKey(key); ok {
			if owner != addr {
				continue
			}
			pre, err := ReadBalance(ctx.ReadPre, key)
			if err != nil {
				return false, err
			}
			post, err := ReadBalance(ctx.Read, key)
			if err != nil {
				return false, err
			}
			if post < pre && !authorized {
				ctx.Log("unauthorized debit", "vp", addr, "key", key, "signer", ctx.Signer())
				return host.Reject()
			}
			continue
		}
		if owner, ok := key.Segment(0).Address(); ok && owner == addr && !authorized {
			ctx.Log("unauthorized write", "vp", addr, "key", key, "signer", ctx.Signer())
			return host.Reject()
		}
	}
	return ctx.Eval([]byte(VPTokenName), nil)
}

// ReadBalance reads an amount through [read], treating an absent key as zero.
func ReadBalance(read func(storage.Key) ([]byte, bool, error), key storage.Key) (Amount, error) {
	b, ok, err := read(key)
	if err != nil || !ok {
		return 0, err
	}
	return AmountFromBytes(b)
}

// balancePrefix identifies the (sub-)token of a balance key.
func balancePrefix(key storage.Key) string {
	segs := key.Segments()
	return storage.NewKey(segs[:len(segs)-1]...).String()
}
