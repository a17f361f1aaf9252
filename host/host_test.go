// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/vpvm/envelope"
)

func TestRegistry(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	noop := func(TxHost) error { return nil }
	yes := func(VPHost, ids.ShortID) (bool, error) { return Accept() }

	assert.NoError(r.RegisterTx("b", noop))
	assert.NoError(r.RegisterTx("a", noop))
	assert.Error(r.RegisterTx("a", noop))
	assert.ErrorIs(r.RegisterTx("", noop), errEmptyName)
	assert.ErrorIs(r.RegisterTx("c", nil), errNilTx)

	assert.NoError(r.RegisterVP("a", yes))
	assert.Error(r.RegisterVP("a", yes))
	assert.ErrorIs(r.RegisterVP("z", nil), errNilVP)

	_, ok := r.Tx("a")
	assert.True(ok)
	_, ok = r.Tx("missing")
	assert.False(ok)
	fn, ok := r.VP("a")
	assert.True(ok)
	accepted, err := fn(nil, ids.ShortEmpty)
	assert.NoError(err)
	assert.True(accepted)

	assert.Equal([]string{"a", "b"}, r.TxNames())
	assert.Equal([]string{"a"}, r.VPNames())
}

func TestEvalRequestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	req := &EvalRequest{VPReference: []byte("vp_always_true"), Input: []byte{1, 2, 3}}
	b, err := req.Bytes()
	assert.NoError(err)

	got, err := ParseEvalRequest(b)
	assert.NoError(err)
	assert.Equal(req, got)

	_, err = ParseEvalRequest(b[:len(b)-1])
	assert.ErrorIs(err, envelope.ErrDecode)
	_, err = ParseEvalRequest(append(b, 0))
	assert.ErrorIs(err, envelope.ErrDecode)
}

func TestLogicError(t *testing.T) {
	assert := assert.New(t)

	err := Failf("no data provided for %s", "tx_write")
	assert.ErrorIs(err, ErrLogic)
	assert.Equal("logic error: no data provided for tx_write", err.Error())

	var le *LogicError
	assert.True(errors.As(err, &le))
	assert.Equal("no data provided for tx_write", le.Msg)

	_, err = Reject()
	assert.NoError(err)
}
