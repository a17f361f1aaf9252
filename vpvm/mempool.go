// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	lru "github.com/hashicorp/golang-lru"
)

var (
	errEmptyMempool = errors.New("empty mempool")
	errDuplicateTx  = errors.New("transaction already submitted")
	errEmptyTx      = errors.New("empty transaction")
)

// mempool queues submitted transactions until they are built into a block.
// Recently seen transaction IDs are remembered so that resubmissions are
// refused.
type mempool struct {
	lock sync.Mutex
	size int
	txs  chan []byte
	seen *lru.Cache
}

func newMempool(size int) (*mempool, error) {
	seen, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &mempool{
		size: size,
		txs:  make(chan []byte, size),
		seen: seen,
	}, nil
}

// Add queues [tx] and returns its ID.
func (m *mempool) Add(tx []byte) (ids.ID, error) {
	if len(tx) == 0 {
		return ids.Empty, errEmptyTx
	}
	txID := TxID(tx)

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.seen.Contains(txID) {
		return ids.Empty, fmt.Errorf("%w: %s", errDuplicateTx, txID)
	}
	select {
	case m.txs <- tx:
		m.seen.Add(txID, nil)
		return txID, nil
	default:
		return ids.Empty, fmt.Errorf("failed to add tx %s to mempool due to full at size (%d)", txID, m.size)
	}
}

func (m *mempool) Next() ([]byte, error) {
	select {
	case tx := <-m.txs:
		return tx, nil
	default:
		return nil, errEmptyMempool
	}
}

// Drain removes up to [max] transactions in submission order.
func (m *mempool) Drain(max int) [][]byte {
	var txs [][]byte
	for len(txs) < max {
		tx, err := m.Next()
		if err != nil {
			break
		}
		txs = append(txs, tx)
	}
	return txs
}

func (m *mempool) Len() int {
	return len(m.txs)
}
