// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/fixtures"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
)

var errBackend = errors.New("disk on fire")

// flakyDB fails every read while [fail] is set.
type flakyDB struct {
	database.Database
	fail bool
}

func (d *flakyDB) Get(key []byte) ([]byte, error) {
	if d.fail {
		return nil, errBackend
	}
	return d.Database.Get(key)
}

// testVerifier accepts or refuses every signature.
type testVerifier bool

func (v testVerifier) Verify([]byte, []byte, ids.ShortID) bool { return bool(v) }

func newTestRegistry(t *testing.T) *host.Registry {
	r := host.NewRegistry()
	require.NoError(t, fixtures.Register(r))
	require.NoError(t, token.Register(r))
	return r
}

type testEnv struct {
	db       *flakyDB
	state    state.State
	results  ResultState
	registry *host.Registry
	engine   *Engine
}

func newTestEnv(t *testing.T, config Config) *testEnv {
	db := &flakyDB{Database: memdb.New()}
	st := state.NewState(db)
	results, err := NewResultState(st.ResultDB(), 16, prometheus.NewRegistry())
	require.NoError(t, err)
	registry := newTestRegistry(t)
	return &testEnv{
		db:       db,
		state:    st,
		results:  results,
		registry: registry,
		engine:   NewEngine(config, st, results, registry, testVerifier(true)),
	}
}

// seed commits [entries] straight into the ledger.
func (e *testEnv) seed(t *testing.T, entries map[string][]byte) {
	ws := state.NewWriteSet()
	for text, value := range entries {
		require.NoError(t, ws.Put(storage.MustParse(text), value))
	}
	require.NoError(t, e.state.Apply(ws))
	require.NoError(t, e.state.Commit())
}

func (e *testEnv) setVP(t *testing.T, addr ids.ShortID, vp string) {
	e.seed(t, map[string][]byte{storage.ValidityPredicateKey(addr).String(): []byte(vp)})
}

func (e *testEnv) read(t *testing.T, key storage.Key) ([]byte, bool) {
	v, ok, err := e.state.Ledger().Get(key)
	require.NoError(t, err)
	return v, ok
}

// makeTx encodes a transaction running [code] over [payload]; a nil
// payload is absent.
func makeTx(t *testing.T, code string, payload []byte) []byte {
	env := envelope.Empty(nil)
	if payload != nil {
		env = envelope.New(payload, nil)
	}
	tx, err := NewTx(code, ids.ShortEmpty, env)
	require.NoError(t, err)
	return tx.Bytes()
}

func testConfig() Config {
	config := DefaultConfig()
	config.VPWorkers = 2
	return config
}
