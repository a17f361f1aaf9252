// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
)

var _ host.VPHost = (*vpContext)(nil)

// vpContext is the host side of one validity predicate invocation. It is
// sealed once the predicate returns its verdict.
type vpContext struct {
	ev    *Evaluator
	frame Frame

	data    []byte
	hasData bool

	log  log.Logger
	done bool
}

func (c *vpContext) check() error {
	if c.done {
		return ErrVerdictFinal
	}
	return c.frame.Meter.Err()
}

func (c *vpContext) Read(key storage.Key) ([]byte, bool, error) {
	return c.read(c.frame.Snapshots.Post, key)
}

func (c *vpContext) ReadPre(key storage.Key) ([]byte, bool, error) {
	return c.read(c.frame.Snapshots.Pre, key)
}

func (c *vpContext) read(r state.Reader, key storage.Key) ([]byte, bool, error) {
	if err := c.check(); err != nil {
		return nil, false, err
	}
	costs, meter := c.ev.costs, c.frame.Meter
	if err := meter.ConsumeGas(costs.Read); err != nil {
		return nil, false, err
	}
	v, ok, err := r.Get(key)
	if err != nil {
		return nil, false, meter.Abort(err)
	}
	if err := meter.ConsumeGas(costs.Sized(0, len(v))); err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (c *vpContext) ChangedKeys() []storage.Key {
	return append([]storage.Key(nil), c.frame.Snapshots.ChangedKeys...)
}

func (c *vpContext) Verifiers() []ids.ShortID {
	return append([]ids.ShortID(nil), c.frame.Snapshots.Verifiers...)
}

func (c *vpContext) Eval(ref []byte, input []byte) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	return c.ev.Eval(c.frame, ref, input)
}

func (c *vpContext) Allocate(n uint64) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.frame.Meter.Allocate(n)
}

func (c *vpContext) Data() ([]byte, bool) {
	if !c.hasData {
		return nil, false
	}
	return append([]byte{}, c.data...), true
}

func (c *vpContext) Signer() ids.ShortID { return c.frame.Snapshots.Signer }

func (c *vpContext) Log(msg string, ctx ...interface{}) {
	c.log.Debug(msg, ctx...)
}
