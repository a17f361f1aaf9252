// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/fixtures"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
	"github.com/ava-labs/vpvm/vpvm"
)

func TestClientRoundTrip(t *testing.T) {
	require := require.New(t)

	factory := crypto.FactorySECP256K1R{}
	sk, err := factory.NewPrivateKey()
	require.NoError(err)
	signer := sk.PublicKey().Address()

	registry := host.NewRegistry()
	require.NoError(fixtures.Register(registry))
	require.NoError(token.Register(registry))

	genesis := &vpvm.Genesis{
		Timestamp: 1_600_000_000,
		Accounts:  []vpvm.GenesisAccount{{Address: signer.String(), VP: fixtures.VPAlwaysTrueName}},
	}
	vm := &vpvm.VM{}
	require.NoError(vm.Initialize(memdb.New(), genesis, vpvm.DefaultConfig(), registry, envelope.NewSECP256K1Verifier()))
	defer func() { require.NoError(vm.Shutdown()) }()

	handlers, err := vm.CreateHandlers()
	require.NoError(err)
	server := httptest.NewServer(handlers[""])
	defer server.Close()

	cli := New(server.URL)
	ctx := context.Background()

	genesisBlock, err := cli.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(0, genesisBlock.Txs)

	key := storage.AddressKey(signer).Push(storage.StringSegment("note"))
	env, err := envelope.Sign(sk, key.Bytes(), true)
	require.NoError(err)
	tx, err := vpvm.NewTx(fixtures.TxWriteStorageKeyName, signer, env)
	require.NoError(err)

	txID, err := cli.SubmitTx(ctx, tx.Bytes())
	require.NoError(err)
	require.Equal(tx.ID(), txID)

	// resubmitting is refused by the mempool
	_, err = cli.SubmitTx(ctx, tx.Bytes())
	require.Error(err)

	built, err := cli.BuildBlock(ctx)
	require.NoError(err)
	require.Equal(uint64(1), uint64(built.Height))
	require.Len(built.Results, 1)
	require.Equal(vpvm.Committed, built.Results[0].Status, built.Results[0].Reason)

	res, err := cli.GetResult(ctx, txID)
	require.NoError(err)
	require.Equal(vpvm.Committed, res.Status)
	require.Equal([]string{key.String()}, res.ChangedKeys)
	require.Empty(res.Verifiers)
	require.Len(res.Verdicts, 1)
	require.Equal(signer, res.Verdicts[0].Address)
	require.True(res.Verdicts[0].Accepted)

	value, ok, err := cli.Read(ctx, key.String())
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte(fixtures.ArbitraryValue), value)

	_, ok, err = cli.Read(ctx, "nothing/here")
	require.NoError(err)
	require.False(ok)

	last, err := cli.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(built.BlockID, last.BlockID)
	require.Equal(1, last.Txs)

	_, err = cli.BuildBlock(ctx)
	require.Error(err)
}
