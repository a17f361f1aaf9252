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

// Snapshots are the read-only inputs shared by every validity predicate of
// one transaction. They are never modified once validation starts.
type Snapshots struct {
	Pre  state.Reader
	Post state.Reader

	ChangedKeys []storage.Key
	Verifiers   []ids.ShortID
	Signer      ids.ShortID
}

// Frame is the state threaded through one validity predicate and every
// evaluation nested inside it. The meter is shared along the whole chain.
type Frame struct {
	Snapshots *Snapshots
	Meter     *limits.Meter
	Depth     int
	Addr      ids.ShortID
}

// Evaluator runs validity predicates, including the ones a predicate
// evaluates on its own through the host.
type Evaluator struct {
	registry *host.Registry
	costs    limits.Costs
	log      log.Logger
}

func NewEvaluator(registry *host.Registry, costs limits.Costs, logger log.Logger) *Evaluator {
	return &Evaluator{
		registry: registry,
		costs:    costs,
		log:      logger,
	}
}

// Validate runs [fn] at the depth of [f] with [data] as its input.
func (e *Evaluator) Validate(f Frame, fn host.VPFunc, data []byte, hasData bool) (bool, error) {
	if err := f.Meter.Err(); err != nil {
		return false, err
	}
	ctx := &vpContext{
		ev:      e,
		frame:   f,
		data:    data,
		hasData: hasData,
		log:     e.log.New("vp", f.Addr, "depth", f.Depth),
	}
	accepted, err := runVP(fn, ctx)
	ctx.done = true

	// aborts recorded on the meter win over whatever the program returned
	if merr := f.Meter.Err(); merr != nil {
		return false, merr
	}
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// Eval resolves [ref] and runs it one level deeper than [f], against the
// same snapshots and budget.
func (e *Evaluator) Eval(f Frame, ref []byte, input []byte) (bool, error) {
	if err := f.Meter.ConsumeGas(e.costs.Eval); err != nil {
		return false, err
	}
	next := f
	next.Depth++
	if err := f.Meter.CheckDepth(next.Depth); err != nil {
		return false, err
	}
	fn, ok := e.registry.VP(string(ref))
	if !ok {
		return false, host.Failf("unknown validity predicate %q", ref)
	}
	return e.Validate(next, fn, input, true)
}

func runVP(fn host.VPFunc, ctx *vpContext) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			accepted, err = false, host.Failf("validity predicate panicked: %v", r)
		}
	}()
	return fn(ctx, ctx.frame.Addr)
}
