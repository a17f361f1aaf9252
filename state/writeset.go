// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"sort"
	"sync"

	"github.com/ava-labs/vpvm/storage"
)

var ErrFrozen = errors.New("write-set is frozen")

// Op is a staged change: a new value, or a tombstone when Deleted is set.
type Op struct {
	Key     storage.Key
	Value   []byte
	Deleted bool
}

// WriteSet holds the tentative changes of one transaction attempt. Once
// frozen it is immutable and safe for concurrent readers.
type WriteSet struct {
	mu     sync.RWMutex
	ops    map[string]Op
	frozen bool
}

func NewWriteSet() *WriteSet {
	return &WriteSet{ops: make(map[string]Op)}
}

// Put stages [value] for [key]. The value is copied.
func (w *WriteSet) Put(key storage.Key, value []byte) error {
	return w.stage(Op{Key: key, Value: append([]byte{}, value...)})
}

// Delete stages a tombstone for [key].
func (w *WriteSet) Delete(key storage.Key) error {
	return w.stage(Op{Key: key, Deleted: true})
}

func (w *WriteSet) stage(op Op) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frozen {
		return ErrFrozen
	}
	w.ops[op.Key.String()] = op
	return nil
}

// Get returns the staged op for [key], if any.
func (w *WriteSet) Get(key storage.Key) (Op, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	op, ok := w.ops[key.String()]
	return op, ok
}

// Freeze makes the write-set immutable.
func (w *WriteSet) Freeze() {
	w.mu.Lock()
	w.frozen = true
	w.mu.Unlock()
}

func (w *WriteSet) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ops)
}

// Ops returns the staged ops in key order.
func (w *WriteSet) Ops() []Op {
	w.mu.RLock()
	ops := make([]Op, 0, len(w.ops))
	for _, op := range w.ops {
		ops = append(ops, op)
	}
	w.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return storage.Less(ops[i].Key, ops[j].Key) })
	return ops
}

// Keys returns the changed keys in key order.
func (w *WriteSet) Keys() []storage.Key {
	ops := w.Ops()
	keys := make([]storage.Key, len(ops))
	for i, op := range ops {
		keys[i] = op.Key
	}
	return keys
}
