// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/fixtures"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/limits"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
)

func TestApplyCommits(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	owner := ids.GenerateTestShortID()
	env.setVP(t, owner, fixtures.VPAlwaysTrueName)

	key := storage.AddressKey(owner).Push(storage.StringSegment("note"))
	res, err := env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, key.Bytes()))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)
	assert.Equal([]string{key.String()}, res.ChangedKeys)
	assert.Len(res.Verdicts, 1)
	assert.True(res.Verdicts[0].Accepted)
	assert.NotZero(res.GasUsed)

	v, ok := env.read(t, key)
	assert.True(ok)
	assert.Equal([]byte(fixtures.ArbitraryValue), v)

	stored, err := env.results.GetResult(res.TxID)
	assert.NoError(err)
	assert.Equal(res, stored)

	env.results.ClearCache()
	stored, err = env.results.GetResult(res.TxID)
	assert.NoError(err)
	assert.Equal(Committed, stored.Status)
	assert.Equal(res.GasUsed, stored.GasUsed)
	assert.Equal(res.ChangedKeys, stored.ChangedKeys)
	assert.Equal(res.Verdicts, stored.Verdicts)
}

func TestApplyRejected(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	yes, no := ids.GenerateTestShortID(), ids.GenerateTestShortID()
	env.setVP(t, yes, fixtures.VPAlwaysTrueName)
	env.setVP(t, no, fixtures.VPAlwaysFalseName)

	key := storage.NewKey(storage.AddressSegment(yes), storage.StringSegment("to"), storage.AddressSegment(no))
	res, err := env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, key.Bytes()))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(Validating, res.FailedIn)
	assert.Equal(KindRejected, res.Kind)

	// every implicated predicate ran
	assert.Len(res.Verdicts, 2)
	_, ok := env.read(t, key)
	assert.False(ok)

	stored, err := env.results.GetResult(res.TxID)
	assert.NoError(err)
	assert.Equal(RolledBack, stored.Status)
}

// A transaction that mints tokens without debiting anyone is rolled back
// by the token's conservation check, leaving the balance untouched.
func TestApplyUnbalancedMint(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	tok, owner := ids.GenerateTestShortID(), ids.GenerateTestShortID()
	env.setVP(t, owner, token.VPTokenName)
	env.setVP(t, tok, token.VPTokenName)
	balKey := token.BalanceKey(tok, owner)
	env.seed(t, map[string][]byte{balKey.String(): token.Whole(100).Bytes()})

	transfer := &token.Transfer{
		Source: ids.GenerateTestShortID(),
		Target: owner,
		Token:  tok,
		Amount: token.Whole(50),
	}
	payload, err := transfer.Bytes()
	require.NoError(t, err)

	res, err := env.engine.Apply(makeTx(t, fixtures.TxMintTokensName, payload))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(Validating, res.FailedIn)
	assert.Equal([]string{balKey.String()}, res.ChangedKeys)

	v, ok := env.read(t, balKey)
	assert.True(ok)
	bal, err := token.AmountFromBytes(v)
	assert.NoError(err)
	assert.Equal(token.Whole(100), bal)
}

func TestApplyTransfer(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	tok, alice, bob := ids.GenerateTestShortID(), ids.GenerateTestShortID(), ids.GenerateTestShortID()
	for _, addr := range []ids.ShortID{tok, alice, bob} {
		env.setVP(t, addr, token.VPTokenName)
	}
	env.seed(t, map[string][]byte{token.BalanceKey(tok, alice).String(): token.Whole(100).Bytes()})

	transfer := &token.Transfer{Source: alice, Target: bob, Token: tok, Amount: token.Whole(40)}
	payload, err := transfer.Bytes()
	require.NoError(t, err)

	res, err := env.engine.Apply(makeTx(t, token.TxTransferName, payload))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)
	assert.Len(res.Verdicts, 3)

	for owner, want := range map[ids.ShortID]token.Amount{alice: token.Whole(60), bob: token.Whole(40)} {
		v, ok := env.read(t, token.BalanceKey(tok, owner))
		assert.True(ok)
		got, err := token.AmountFromBytes(v)
		assert.NoError(err)
		assert.Equal(want, got)
	}

	// overdrawing fails in the transaction body
	transfer.Amount = token.Whole(1000)
	payload, err = transfer.Bytes()
	require.NoError(t, err)
	res, err = env.engine.Apply(makeTx(t, token.TxTransferName, payload))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(Executing, res.FailedIn)
	assert.Equal(KindLogic, res.Kind)
}

func TestApplyMissingVP(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	key := storage.AddressKey(ids.GenerateTestShortID()).Push(storage.StringSegment("x"))

	res, err := env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, key.Bytes()))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(KindMissingVP, res.Kind)

	config := testConfig()
	config.DefaultVP = fixtures.VPAlwaysTrueName
	env = newTestEnv(t, config)
	res, err = env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, key.Bytes()))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)
}

func TestApplyNoImplicatedAddresses(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	res, err := env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, []byte("plain/key")))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)
	assert.Empty(res.Verdicts)

	res, err = env.engine.Apply(makeTx(t, fixtures.TxNoOpName, nil))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status)
	assert.Empty(res.ChangedKeys)
}

func TestApplyEarlyFailures(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())

	res, err := env.engine.Apply([]byte{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(Decoding, res.FailedIn)
	assert.Equal(KindDecode, res.Kind)

	res, err = env.engine.Apply(makeTx(t, "no_such_tx", nil))
	require.NoError(t, err)
	assert.Equal(Executing, res.FailedIn)
	assert.Equal(KindLogic, res.Kind)

	res, err = env.engine.Apply(makeTx(t, fixtures.TxWriteStorageKeyName, []byte("bad//key")))
	require.NoError(t, err)
	assert.Equal(Executing, res.FailedIn)
	assert.Equal(KindInvalidKey, res.Kind)

	res, err = env.engine.Apply(makeTx(t, fixtures.TxMemoryLimitName, fixtures.Size(1<<40)))
	require.NoError(t, err)
	assert.Equal(Executing, res.FailedIn)
	assert.Equal(KindResource, res.Kind)

	refusing := NewEngine(testConfig(), env.state, env.results, env.registry, testVerifier(false))
	res, err = refusing.Apply(makeTx(t, fixtures.TxNoOpName, nil))
	require.NoError(t, err)
	assert.Equal(Verifying, res.FailedIn)
	assert.Equal(KindInvalidSignature, res.Kind)
}

func TestApplySigned(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	engine := NewEngine(testConfig(), env.state, env.results, env.registry, envelope.NewSECP256K1Verifier())

	factory := crypto.FactorySECP256K1R{}
	sk, err := factory.NewPrivateKey()
	require.NoError(t, err)
	signer := sk.PublicKey().Address()

	env.setVP(t, signer, fixtures.VPAlwaysTrueName)
	key := storage.AddressKey(signer).Push(storage.StringSegment("k"))

	env0, err := envelope.Sign(sk, key.Bytes(), true)
	require.NoError(t, err)
	tx, err := NewTx(fixtures.TxWriteStorageKeyName, signer, env0)
	require.NoError(t, err)
	res, err := engine.Apply(tx.Bytes())
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)

	// same signature claimed by somebody else
	forged, err := NewTx(fixtures.TxWriteStorageKeyName, ids.GenerateTestShortID(), env0)
	require.NoError(t, err)
	res, err = engine.Apply(forged.Bytes())
	require.NoError(t, err)
	assert.Equal(KindInvalidSignature, res.Kind)
}

func TestApplyDebitNeedsOwnerSignature(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	engine := NewEngine(testConfig(), env.state, env.results, env.registry, envelope.NewSECP256K1Verifier())

	factory := crypto.FactorySECP256K1R{}
	aliceKey, err := factory.NewPrivateKey()
	require.NoError(t, err)
	malloryKey, err := factory.NewPrivateKey()
	require.NoError(t, err)
	alice, mallory := aliceKey.PublicKey().Address(), malloryKey.PublicKey().Address()
	tok := ids.GenerateTestShortID()

	env.setVP(t, tok, token.VPTokenName)
	env.setVP(t, alice, token.VPUserName)
	env.setVP(t, mallory, token.VPUserName)
	balKey := token.BalanceKey(tok, alice)
	env.seed(t, map[string][]byte{balKey.String(): token.Whole(100).Bytes()})

	transfer := func(sk crypto.PrivateKey, signer ids.ShortID) *Result {
		payload, err := (&token.Transfer{Source: alice, Target: mallory, Token: tok, Amount: token.Whole(100)}).Bytes()
		require.NoError(t, err)
		signed, err := envelope.Sign(sk, payload, true)
		require.NoError(t, err)
		tx, err := NewTx(token.TxTransferName, signer, signed)
		require.NoError(t, err)
		res, err := engine.Apply(tx.Bytes())
		require.NoError(t, err)
		return res
	}

	res := transfer(malloryKey, mallory)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(KindRejected, res.Kind)
	assert.Contains(res.Reason, alice.String())
	bal, _ := env.read(t, balKey)
	assert.Equal(token.Whole(100).Bytes(), bal)

	res = transfer(aliceKey, alice)
	assert.Equal(Committed, res.Status, res.Reason)
	assert.Len(res.Verdicts, 3)
	bal, _ = env.read(t, token.BalanceKey(tok, mallory))
	assert.Equal(token.Whole(100).Bytes(), bal)
}

func TestApplyVPResourceExceeded(t *testing.T) {
	assert := assert.New(t)

	config := testConfig()
	config.VPLimits = limits.Limits{Gas: 100_000, Memory: 1000, MaxDepth: 2}
	env := newTestEnv(t, config)
	owner := ids.GenerateTestShortID()
	env.setVP(t, owner, fixtures.VPMemoryLimitName)

	// the transaction data doubles as the predicate's allocation size
	res, err := env.engine.Apply(makeTx(t, fixtures.TxMemoryLimitName, fixtures.Size(5000)))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, "no address is implicated")

	require.NoError(t, env.registry.RegisterTx("tx_touch_owner", func(ctx host.TxHost) error {
		return ctx.InsertVerifier(owner)
	}))
	res, err = env.engine.Apply(makeTx(t, "tx_touch_owner", fixtures.Size(5000)))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Equal(KindResource, res.Kind)
	assert.Equal([]ids.ShortID{owner}, res.Verifiers)

	res, err = env.engine.Apply(makeTx(t, "tx_touch_owner", fixtures.Size(10)))
	require.NoError(t, err)
	assert.Equal(Committed, res.Status, res.Reason)
}

func TestApplyStorageFailureIsFatal(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, testConfig())
	owner := ids.GenerateTestShortID()
	env.setVP(t, owner, fixtures.VPAlwaysTrueName)
	key := storage.AddressKey(owner).Push(storage.StringSegment("k"))
	txBytes := makeTx(t, fixtures.TxWriteStorageKeyName, key.Bytes())

	env.db.fail = true
	res, err := env.engine.Apply(txBytes)
	assert.Nil(res)
	assert.True(state.IsStorageError(err))
	assert.ErrorIs(err, errBackend)

	env.db.fail = false
	_, err = env.results.GetResult(TxID(txBytes))
	assert.ErrorIs(err, database.ErrNotFound)
	_, ok := env.read(t, key)
	assert.False(ok)
}

func TestApplyManyPredicates(t *testing.T) {
	assert := assert.New(t)

	config := testConfig()
	config.VPWorkers = 3
	env := newTestEnv(t, config)

	var addrs []ids.ShortID
	for i := 0; i < 10; i++ {
		addr := ids.GenerateTestShortID()
		addrs = append(addrs, addr)
		vp := fixtures.VPAlwaysTrueName
		if i == 7 {
			vp = fixtures.VPAlwaysFalseName
		}
		env.setVP(t, addr, vp)
	}
	require.NoError(t, env.registry.RegisterTx("tx_touch_all", func(ctx host.TxHost) error {
		for _, addr := range addrs {
			if err := ctx.InsertVerifier(addr); err != nil {
				return err
			}
		}
		return nil
	}))

	res, err := env.engine.Apply(makeTx(t, "tx_touch_all", nil))
	require.NoError(t, err)
	assert.Equal(RolledBack, res.Status)
	assert.Len(res.Verdicts, 10)
	rejected := 0
	for i, v := range res.Verdicts {
		if i > 0 {
			assert.True(storage.Less(storage.AddressKey(res.Verdicts[i-1].Address), storage.AddressKey(v.Address)))
		}
		if !v.Accepted {
			rejected++
			assert.Equal(addrs[7], v.Address)
		}
	}
	assert.Equal(1, rejected)
}
