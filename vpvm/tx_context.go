// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/limits"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
)

var _ host.TxHost = (*txContext)(nil)

// txContext is the host side of one transaction body. Writes are staged in
// [writes] and only reach storage if the transaction commits.
type txContext struct {
	view      state.Reader
	writes    *state.WriteSet
	verifiers ids.ShortSet

	meter *limits.Meter
	costs limits.Costs

	data    []byte
	hasData bool
	signer  ids.ShortID

	log    log.Logger
	closed bool
}

func newTxContext(pre state.Reader, meter *limits.Meter, costs limits.Costs, data []byte, hasData bool, signer ids.ShortID, logger log.Logger) *txContext {
	writes := state.NewWriteSet()
	return &txContext{
		view:      state.NewOverlay(pre, writes),
		writes:    writes,
		verifiers: ids.ShortSet{},
		meter:     meter,
		costs:     costs,
		data:      data,
		hasData:   hasData,
		signer:    signer,
		log:       logger,
	}
}

func (c *txContext) check() error {
	if c.closed {
		return ErrContextClosed
	}
	return c.meter.Err()
}

func (c *txContext) Read(key storage.Key) ([]byte, bool, error) {
	if err := c.check(); err != nil {
		return nil, false, err
	}
	if err := c.meter.ConsumeGas(c.costs.Read); err != nil {
		return nil, false, err
	}
	v, ok, err := c.view.Get(key)
	if err != nil {
		return nil, false, c.meter.Abort(err)
	}
	if err := c.meter.ConsumeGas(c.costs.Sized(0, len(v))); err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (c *txContext) Has(key storage.Key) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	if err := c.meter.ConsumeGas(c.costs.Read); err != nil {
		return false, err
	}
	_, ok, err := c.view.Get(key)
	if err != nil {
		return false, c.meter.Abort(err)
	}
	return ok, nil
}

func (c *txContext) Write(key storage.Key, value []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}
	n := len(key.Bytes()) + len(value)
	if err := c.meter.ConsumeGas(c.costs.Sized(c.costs.Write, n)); err != nil {
		return err
	}
	if err := c.meter.Allocate(uint64(n)); err != nil {
		return err
	}
	return c.writes.Put(key, value)
}

func (c *txContext) Delete(key storage.Key) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}
	if err := c.meter.ConsumeGas(c.costs.Delete); err != nil {
		return err
	}
	return c.writes.Delete(key)
}

func (c *txContext) InsertVerifier(addr ids.ShortID) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := c.meter.ConsumeGas(c.costs.Verifier); err != nil {
		return err
	}
	c.verifiers.Add(addr)
	return nil
}

func (c *txContext) Allocate(n uint64) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.meter.Allocate(n)
}

func (c *txContext) Data() ([]byte, bool) {
	if !c.hasData {
		return nil, false
	}
	return append([]byte{}, c.data...), true
}

func (c *txContext) Signer() ids.ShortID { return c.signer }

func (c *txContext) Log(msg string, ctx ...interface{}) {
	c.log.Debug(msg, ctx...)
}

// close seals the context and freezes its write-set.
func (c *txContext) close() {
	c.closed = true
	c.writes.Freeze()
}

// runTx calls [fn], turning a panic into a LogicError.
func runTx(fn host.TxFunc, ctx *txContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = host.Failf("transaction panicked: %v", r)
		}
	}()
	return fn(ctx)
}
