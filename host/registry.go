// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	errEmptyName = errors.New("empty program name")
	errNilTx     = errors.New("nil transaction program")
	errNilVP     = errors.New("nil validity predicate")
)

// Registry maps program references to transaction bodies and validity
// predicates. It stands in for the code loader of an interpreter: the engine
// only ever resolves references through it.
type Registry struct {
	mu  sync.RWMutex
	txs map[string]TxFunc
	vps map[string]VPFunc
}

func NewRegistry() *Registry {
	return &Registry{
		txs: make(map[string]TxFunc),
		vps: make(map[string]VPFunc),
	}
}

func (r *Registry) RegisterTx(name string, fn TxFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case name == "":
		return errEmptyName
	case fn == nil:
		return errNilTx
	}
	if _, ok := r.txs[name]; ok {
		return fmt.Errorf("duplicate transaction program: %s", name)
	}
	r.txs[name] = fn
	return nil
}

func (r *Registry) RegisterVP(name string, fn VPFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case name == "":
		return errEmptyName
	case fn == nil:
		return errNilVP
	}
	if _, ok := r.vps[name]; ok {
		return fmt.Errorf("duplicate validity predicate: %s", name)
	}
	r.vps[name] = fn
	return nil
}

func (r *Registry) Tx(name string) (TxFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.txs[name]
	return fn, ok
}

func (r *Registry) VP(name string) (VPFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.vps[name]
	return fn, ok
}

// TxNames lists the registered transaction programs, sorted.
func (r *Registry) TxNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.txs))
	for name := range r.txs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VPNames lists the registered validity predicates, sorted.
func (r *Registry) VPNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.vps))
	for name := range r.vps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
