// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixtures provides small transaction and validity predicate
// programs for exercising the engine: no-ops, constant verdicts, memory
// and storage reads, nested evaluation, an unbalanced mint and a
// parameter-changing proposal.
package fixtures

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
)

const (
	TxNoOpName            = "tx_no_op"
	TxMemoryLimitName     = "tx_memory_limit"
	TxReadStorageKeyName  = "tx_read_storage_key"
	TxWriteStorageKeyName = "tx_write_storage_key"
	TxMintTokensName      = "tx_mint_tokens"
	TxProposalCodeName    = "tx_proposal_code"

	VPAlwaysTrueName     = "vp_always_true"
	VPAlwaysFalseName    = "vp_always_false"
	VPEvalName           = "vp_eval"
	VPMemoryLimitName    = "vp_memory_limit"
	VPReadStorageKeyName = "vp_read_storage_key"

	// ArbitraryValue is what TxWriteStorageKey writes.
	ArbitraryValue = "arbitrary value"

	// Values written by TxProposalCode
	ProposalMinGraceEpoch  = 9
	ProposalWhitelistEntry = "hash"
)

var (
	// Accounts holding the parameters TxProposalCode changes
	GovernanceAddress = ids.ShortID(hashing.ComputeHash160Array([]byte("governance")))
	TreasuryAddress   = ids.ShortID(hashing.ComputeHash160Array([]byte("treasury")))
	ParametersAddress = ids.ShortID(hashing.ComputeHash160Array([]byte("parameters")))

	MinGraceEpochKey       = storage.AddressKey(GovernanceAddress).Push(storage.StringSegment("min_grace_epoch"))
	MaxTransferableFundKey = storage.AddressKey(TreasuryAddress).Push(storage.StringSegment("max_transferable_fund"))
	TxWhitelistKey         = storage.AddressKey(ParametersAddress).Push(storage.StringSegment("tx_whitelist"))

	// ProposalMaxTransferableFund is the treasury limit TxProposalCode sets.
	ProposalMaxTransferableFund = token.Whole(20_000)
)

// Register adds every fixture to [r].
func Register(r *host.Registry) error {
	errs := wrappers.Errs{}
	errs.Add(
		r.RegisterTx(TxNoOpName, TxNoOp),
		r.RegisterTx(TxMemoryLimitName, TxMemoryLimit),
		r.RegisterTx(TxReadStorageKeyName, TxReadStorageKey),
		r.RegisterTx(TxWriteStorageKeyName, TxWriteStorageKey),
		r.RegisterTx(TxMintTokensName, TxMintTokens),
		r.RegisterTx(TxProposalCodeName, TxProposalCode),

		r.RegisterVP(VPAlwaysTrueName, VPAlwaysTrue),
		r.RegisterVP(VPAlwaysFalseName, VPAlwaysFalse),
		r.RegisterVP(VPEvalName, VPEval),
		r.RegisterVP(VPMemoryLimitName, VPMemoryLimit),
		r.RegisterVP(VPReadStorageKeyName, VPReadStorageKey),
	)
	return errs.Err
}

// Size encodes an allocation size argument.
func Size(n uint64) []byte {
	b := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func parseSize(data []byte, ok bool) (uint64, error) {
	if !ok || len(data) != wrappers.LongLen {
		return 0, host.Failf("expected an 8 byte size, got %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func parseKey(data []byte, ok bool) (storage.Key, error) {
	if !ok {
		return storage.Key{}, host.Failf("no key provided")
	}
	return storage.Parse(string(data))
}

// TxNoOp does nothing.
func TxNoOp(host.TxHost) error { return nil }

// TxMemoryLimit allocates the number of bytes given in its data.
func TxMemoryLimit(ctx host.TxHost) error {
	n, err := parseSize(ctx.Data())
	if err != nil {
		return err
	}
	ctx.Log("allocate", "len", n)
	return ctx.Allocate(n)
}

// TxReadStorageKey reads the key given in its data, failing if it is absent.
func TxReadStorageKey(ctx host.TxHost) error {
	key, err := parseKey(ctx.Data())
	if err != nil {
		return err
	}
	ctx.Log("read", "key", key)
	_, ok, err := ctx.Read(key)
	if err != nil {
		return err
	}
	if !ok {
		return host.Failf("key %s not found", key)
	}
	return nil
}

// TxProposalCode is the code of a governance proposal: it sets the minimum
// proposal grace epoch, the treasury transfer limit and the transaction
// whitelist.
func TxProposalCode(ctx host.TxHost) error {
	if err := ctx.Write(MinGraceEpochKey, Size(ProposalMinGraceEpoch)); err != nil {
		return err
	}
	if err := ctx.Write(MaxTransferableFundKey, ProposalMaxTransferableFund.Bytes()); err != nil {
		return err
	}
	whitelist, err := EncodeWhitelist([]string{ProposalWhitelistEntry})
	if err != nil {
		return err
	}
	return ctx.Write(TxWhitelistKey, whitelist)
}

// EncodeWhitelist encodes a list of transaction code references.
func EncodeWhitelist(entries []string) ([]byte, error) {
	size := wrappers.IntLen
	for _, e := range entries {
		size += wrappers.ShortLen + len(e)
	}
	p := wrappers.Packer{MaxSize: size}
	p.PackInt(uint32(len(entries)))
	for _, e := range entries {
		p.PackStr(e)
	}
	return p.Bytes, p.Err
}

// TxWriteStorageKey writes ArbitraryValue at the key given in its data.
func TxWriteStorageKey(ctx host.TxHost) error {
	key, err := parseKey(ctx.Data())
	if err != nil {
		return err
	}
	prev, ok, err := ctx.Read(key)
	if err != nil {
		return err
	}
	if ok {
		ctx.Log("preexisting value", "key", key, "value", string(prev))
	} else {
		ctx.Log("no preexisting value", "key", key)
	}
	return ctx.Write(key, []byte(ArbitraryValue))
}

// TxMintTokens credits the target of a transfer without debiting the
// source. Token validity predicates are expected to reject it.
func TxMintTokens(ctx host.TxHost) error {
	data, ok := ctx.Data()
	if !ok {
		return host.Failf("no transfer data provided")
	}
	t, err := token.ParseTransfer(data)
	if err != nil {
		return err
	}
	ctx.Log("minting", "target", t.Target, "token", t.Token, "amount", t.Amount)

	key := token.BalanceKey(t.Token, t.Target)
	bal, err := token.ReadBalance(ctx.Read, key)
	if err != nil {
		return err
	}
	bal, err = bal.Add(t.Amount)
	if err != nil {
		return &host.LogicError{Msg: err.Error()}
	}
	return ctx.Write(key, bal.Bytes())
}

func VPAlwaysTrue(host.VPHost, ids.ShortID) (bool, error)  { return host.Accept() }
func VPAlwaysFalse(host.VPHost, ids.ShortID) (bool, error) { return host.Reject() }

// VPEval evaluates the EvalRequest in its data and returns its verdict.
func VPEval(ctx host.VPHost, _ ids.ShortID) (bool, error) {
	data, ok := ctx.Data()
	if !ok {
		return false, host.Failf("no eval request provided")
	}
	req, err := host.ParseEvalRequest(data)
	if err != nil {
		return false, err
	}
	return ctx.Eval(req.VPReference, req.Input)
}

// VPMemoryLimit allocates the number of bytes given in its data and accepts.
func VPMemoryLimit(ctx host.VPHost, _ ids.ShortID) (bool, error) {
	n, err := parseSize(ctx.Data())
	if err != nil {
		return false, err
	}
	ctx.Log("allocate", "len", n)
	if err := ctx.Allocate(n); err != nil {
		return false, err
	}
	return host.Accept()
}

// VPReadStorageKey reads the pre-state value of the key given in its data
// and accepts if it exists.
func VPReadStorageKey(ctx host.VPHost, _ ids.ShortID) (bool, error) {
	key, err := parseKey(ctx.Data())
	if err != nil {
		return false, err
	}
	ctx.Log("read pre", "key", key)
	_, ok, err := ctx.ReadPre(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, host.Failf("key %s not found", key)
	}
	return host.Accept()
}
