// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixtures

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
)

var _ host.TxHost = (*fakeTx)(nil)

// fakeTx records writes and allocations in memory.
type fakeTx struct {
	data      []byte
	hasData   bool
	values    map[string][]byte
	allocated uint64
}

func (f *fakeTx) Read(k storage.Key) ([]byte, bool, error) {
	v, ok := f.values[k.String()]
	return v, ok, nil
}

func (f *fakeTx) Has(k storage.Key) (bool, error) {
	_, ok := f.values[k.String()]
	return ok, nil
}

func (f *fakeTx) Write(k storage.Key, v []byte) error {
	f.values[k.String()] = v
	return nil
}

func (f *fakeTx) Delete(k storage.Key) error {
	delete(f.values, k.String())
	return nil
}

func (f *fakeTx) InsertVerifier(ids.ShortID) error { return nil }
func (f *fakeTx) Allocate(n uint64) error          { f.allocated += n; return nil }
func (f *fakeTx) Data() ([]byte, bool)             { return f.data, f.hasData }
func (f *fakeTx) Signer() ids.ShortID              { return ids.ShortEmpty }
func (f *fakeTx) Log(string, ...interface{})       {}

func TestRegister(t *testing.T) {
	assert := assert.New(t)

	r := host.NewRegistry()
	assert.NoError(Register(r))
	assert.Len(r.TxNames(), 6)
	assert.Len(r.VPNames(), 5)
	assert.Error(Register(r))
}

func TestTxFixtures(t *testing.T) {
	assert := assert.New(t)

	ctx := &fakeTx{data: Size(64), hasData: true, values: map[string][]byte{}}
	assert.NoError(TxNoOp(ctx))
	assert.NoError(TxMemoryLimit(ctx))
	assert.Equal(uint64(64), ctx.allocated)

	ctx = &fakeTx{data: []byte{1}, hasData: true}
	assert.ErrorIs(TxMemoryLimit(ctx), host.ErrLogic)

	ctx = &fakeTx{data: []byte("some/key"), hasData: true, values: map[string][]byte{}}
	assert.ErrorIs(TxReadStorageKey(ctx), host.ErrLogic)
	assert.NoError(TxWriteStorageKey(ctx))
	assert.Equal([]byte(ArbitraryValue), ctx.values["some/key"])
	assert.NoError(TxReadStorageKey(ctx))

	ctx = &fakeTx{values: map[string][]byte{}}
	assert.ErrorIs(TxWriteStorageKey(ctx), host.ErrLogic)
	assert.ErrorIs(TxMintTokens(ctx), host.ErrLogic)

	ctx = &fakeTx{data: []byte("#bad"), hasData: true, values: map[string][]byte{}}
	assert.ErrorIs(TxWriteStorageKey(ctx), storage.ErrInvalidKeyFormat)

	ctx = &fakeTx{values: map[string][]byte{}}
	assert.NoError(TxProposalCode(ctx))
	assert.Len(ctx.values, 3)
	assert.Equal(Size(9), ctx.values[MinGraceEpochKey.String()])
	assert.Equal(token.Whole(20_000).Bytes(), ctx.values[MaxTransferableFundKey.String()])
	whitelist, err := EncodeWhitelist([]string{"hash"})
	assert.NoError(err)
	assert.Equal(whitelist, ctx.values[TxWhitelistKey.String()])
	for _, key := range []storage.Key{MinGraceEpochKey, MaxTransferableFundKey, TxWhitelistKey} {
		assert.NoError(key.Validate())
		assert.Len(key.Addresses(), 1)
	}
}
