// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	errResultWrongVersion = errors.New("wrong version")

	_ ResultState = (*resultState)(nil)
)

// ResultState persists the outcome of every applied transaction, keyed by
// transaction ID.
type ResultState interface {
	GetResult(txID ids.ID) (*Result, error)
	PutResult(res *Result) error

	ClearCache()
}

type resultState struct {
	resultCache cache.Cacher
	resultDB    database.Database
}

func NewResultState(db database.Database, cacheSize int, registerer prometheus.Registerer) (ResultState, error) {
	resultCache, err := metercacher.New(
		"result_cache",
		registerer,
		&cache.LRU{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &resultState{
		resultCache: resultCache,
		resultDB:    db,
	}, nil
}

// GetResult returns database.ErrNotFound for unknown transactions.
func (s *resultState) GetResult(txID ids.ID) (*Result, error) {
	if resIntf, ok := s.resultCache.Get(txID); ok {
		return resIntf.(*Result), nil
	}

	resBytes, err := s.resultDB.Get(txID[:])
	if err != nil {
		return nil, err
	}

	res := &Result{}
	parsedVersion, err := Codec.Unmarshal(resBytes, res)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errResultWrongVersion
	}

	s.resultCache.Put(txID, res)
	return res, nil
}

func (s *resultState) PutResult(res *Result) error {
	bytes, err := Codec.Marshal(CodecVersion, res)
	if err != nil {
		return err
	}
	s.resultCache.Put(res.TxID, res)
	return s.resultDB.Put(res.TxID[:], bytes)
}

func (s *resultState) ClearCache() {
	s.resultCache.Flush()
}
