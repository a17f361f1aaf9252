// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/limits"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
)

// Engine applies transactions to a State one at a time. Every transaction
// ends either Committed, with its write-set applied, or RolledBack, with no
// ledger effect. In both cases its Result is persisted.
//
// Apply and Stage return an error only when storage fails; the caller must
// treat it as fatal. The State is aborted by then.
type Engine struct {
	config   Config
	state    state.State
	results  ResultState
	registry *host.Registry
	verifier envelope.Verifier
	eval     *Evaluator
	metrics  *metrics
	log      log.Logger
}

func NewEngine(config Config, st state.State, results ResultState, registry *host.Registry, verifier envelope.Verifier) *Engine {
	logger := log.New("module", "engine")
	return &Engine{
		config:   config,
		state:    st,
		results:  results,
		registry: registry,
		verifier: verifier,
		eval:     NewEvaluator(registry, config.Costs, logger),
		metrics:  newMetrics(),
		log:      logger,
	}
}

// RegisterMetrics exposes the engine's counters on [r].
func (e *Engine) RegisterMetrics(r prometheus.Registerer) error {
	return e.metrics.register(r)
}

// Apply runs [txBytes] through the commit protocol and commits its outcome.
func (e *Engine) Apply(txBytes []byte) (*Result, error) {
	res, err := e.Stage(txBytes)
	if err != nil {
		return nil, err
	}
	if err := e.state.Commit(); err != nil {
		return nil, e.fatal(res, err)
	}
	e.metrics.observe(res)
	return res, nil
}

// Stage runs [txBytes] through the commit protocol, leaving its write-set
// and Result pending in the State. Later transactions read what it staged.
// The caller commits, usually once for a whole block.
func (e *Engine) Stage(txBytes []byte) (*Result, error) {
	res := newResult(TxID(txBytes))

	tx, err := ParseTx(txBytes)
	if err != nil {
		return e.finish(res, nil, err)
	}
	env, err := tx.SignedEnvelope()
	if err != nil {
		return e.finish(res, nil, err)
	}

	res.advance(Verifying)
	if err := envelope.Verify(env, e.verifier, tx.Signer); err != nil {
		return e.finish(res, nil, err)
	}

	res.advance(Executing)
	data, hasData := env.Data()
	ws, verifiers, err := e.execute(tx, data, hasData, res)
	if state.IsStorageError(err) {
		return nil, e.fatal(res, err)
	}
	if err != nil {
		return e.finish(res, nil, err)
	}

	res.advance(Validating)
	err = e.validate(ws, verifiers, tx.Signer, data, hasData, res)
	if state.IsStorageError(err) {
		return nil, e.fatal(res, err)
	}
	if err != nil {
		return e.finish(res, nil, err)
	}
	return e.finish(res, ws, nil)
}

// execute runs the transaction body and returns its frozen write-set.
func (e *Engine) execute(tx *Tx, data []byte, hasData bool, res *Result) (*state.WriteSet, []ids.ShortID, error) {
	fn, ok := e.registry.Tx(tx.Code)
	if !ok {
		return nil, nil, host.Failf("unknown transaction program %q", tx.Code)
	}
	meter := limits.NewMeter(e.config.TxLimits)
	ctx := newTxContext(e.state.Ledger(), meter, e.config.Costs, data, hasData, tx.Signer, e.log.New("tx", res.TxID))

	err := runTx(fn, ctx)
	ctx.close()
	res.GasUsed = meter.GasUsed()
	if merr := meter.Err(); merr != nil {
		err = merr
	}
	if err != nil {
		return nil, nil, err
	}

	verifiers := ctx.verifiers.List()
	sortAddresses(verifiers)
	for _, key := range ctx.writes.Keys() {
		res.ChangedKeys = append(res.ChangedKeys, key.String())
	}
	res.Verifiers = verifiers
	return ctx.writes, verifiers, nil
}

// validate runs the validity predicate of every implicated address. All of
// them run; the transaction is accepted only if all of them accept.
func (e *Engine) validate(ws *state.WriteSet, verifiers []ids.ShortID, signer ids.ShortID, data []byte, hasData bool, res *Result) error {
	pre := e.state.Ledger()
	changed := ws.Keys()
	snap := &Snapshots{
		Pre:         pre,
		Post:        state.NewOverlay(pre, ws),
		ChangedKeys: changed,
		Verifiers:   verifiers,
		Signer:      signer,
	}
	addrs := implicated(changed, verifiers)
	verdicts := make([]Verdict, len(addrs))
	causes := make([]error, len(addrs))

	work := make(chan int, len(addrs))
	for i := range addrs {
		work <- i
	}
	close(work)

	workers := e.config.VPWorkers
	if workers > len(addrs) {
		workers = len(addrs)
	}
	g, gctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range work {
				if err := gctx.Err(); err != nil {
					return err
				}
				verdicts[i], causes[i] = e.runPredicate(snap, addrs[i], data, hasData)
				if state.IsStorageError(causes[i]) {
					return causes[i]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res.Verdicts = verdicts
	var cause error
	for i, v := range verdicts {
		res.GasUsed += v.GasUsed
		if v.Accepted || cause != nil {
			continue
		}
		if causes[i] != nil {
			cause = fmt.Errorf("validity predicate of %s: %w", v.Address, causes[i])
		} else {
			cause = fmt.Errorf("%w: %s", ErrRejected, v.Address)
		}
	}
	return cause
}

// runPredicate resolves and runs the validity predicate of [addr] with a
// fresh budget. The returned error is the reason the predicate failed, if
// it did not return a verdict.
func (e *Engine) runPredicate(snap *Snapshots, addr ids.ShortID, data []byte, hasData bool) (Verdict, error) {
	v := Verdict{Address: addr}
	ref, ok, err := snap.Pre.Get(storage.ValidityPredicateKey(addr))
	if err != nil {
		return v, err
	}
	name := string(ref)
	if !ok {
		if e.config.DefaultVP == "" {
			return v.failed(ErrMissingVP)
		}
		name = e.config.DefaultVP
	}
	fn, ok := e.registry.VP(name)
	if !ok {
		return v.failed(host.Failf("unknown validity predicate %q", name))
	}

	meter := limits.NewMeter(e.config.VPLimits)
	accepted, err := e.eval.Validate(Frame{Snapshots: snap, Meter: meter, Addr: addr}, fn, data, hasData)
	v.GasUsed = meter.GasUsed()
	if err != nil {
		return v.failed(err)
	}
	v.Accepted = accepted
	return v, nil
}

// finish stages [res], and [ws] if the transaction committed, so that a
// single Commit persists both.
func (e *Engine) finish(res *Result, ws *state.WriteSet, cause error) (*Result, error) {
	logger := e.log.New("tx", res.TxID)
	if cause != nil {
		res.rollBack(cause)
		logger.Debug("transaction rolled back", "failedIn", res.FailedIn, "kind", res.Kind, "reason", res.Reason, "logic", isLogic(cause))
	} else {
		if err := e.state.Apply(ws); err != nil {
			return nil, e.fatal(res, err)
		}
		res.commit()
		logger.Debug("transaction committed", "changed", len(res.ChangedKeys), "gas", res.GasUsed)
	}
	if err := e.results.PutResult(res); err != nil {
		return nil, e.fatal(res, &state.StorageError{Op: "put result", Key: res.TxID.String(), Err: err})
	}
	return res, nil
}

func (e *Engine) fatal(res *Result, err error) error {
	e.Abort()
	e.log.Error("storage failure", "tx", res.TxID, "status", res.Status, "err", err)
	return err
}

// Abort drops everything staged since the last commit, results included.
func (e *Engine) Abort() {
	e.state.Abort()
	e.results.ClearCache()
}

// implicated returns the sorted, deduplicated addresses whose validity
// predicates must run: those appearing in [changed] plus [verifiers].
func implicated(changed []storage.Key, verifiers []ids.ShortID) []ids.ShortID {
	set := ids.ShortSet{}
	for _, key := range changed {
		set.Add(key.Addresses()...)
	}
	set.Add(verifiers...)
	addrs := set.List()
	sortAddresses(addrs)
	return addrs
}

func sortAddresses(addrs []ids.ShortID) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
}
