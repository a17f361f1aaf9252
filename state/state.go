// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	ledgerStatePrefix    = []byte("ledger")
	resultStatePrefix    = []byte("result")
	blockStatePrefix     = []byte("block")

	_ State = (*state)(nil)
)

// State is the committed storage owned by the block sequencer. Writes made
// through any of its databases stay pending until Commit, which flushes them
// to the underlying database as one batch.
type State interface {
	InitializedState

	// Ledger returns a reader over ledger storage, pending writes included.
	Ledger() Reader
	// Apply stages [ws] onto ledger storage.
	Apply(ws *WriteSet) error

	ResultDB() database.Database
	BlockDB() database.Database

	Commit() error
	Abort()
	Close() error
}

type state struct {
	InitializedState

	baseDB   *versiondb.Database
	ledgerDB database.Database
	resultDB database.Database
	blockDB  database.Database
}

func NewState(db database.Database) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	// create a prefixed "singletonDB" from baseDB
	singletonDB := prefixdb.New(singletonStatePrefix, baseDB)

	return &state{
		InitializedState: NewInitializedState(singletonDB),
		baseDB:           baseDB,
		ledgerDB:         prefixdb.New(ledgerStatePrefix, baseDB),
		resultDB:         prefixdb.New(resultStatePrefix, baseDB),
		blockDB:          prefixdb.New(blockStatePrefix, baseDB),
	}
}

func (s *state) Ledger() Reader { return NewDBReader(s.ledgerDB) }

func (s *state) Apply(ws *WriteSet) error {
	for _, op := range ws.Ops() {
		var err error
		if op.Deleted {
			err = s.ledgerDB.Delete(op.Key.Bytes())
		} else {
			err = s.ledgerDB.Put(op.Key.Bytes(), op.Value)
		}
		if err != nil {
			return &StorageError{Op: "apply", Key: op.Key.String(), Err: err}
		}
	}
	return nil
}

func (s *state) ResultDB() database.Database { return s.resultDB }
func (s *state) BlockDB() database.Database  { return s.blockDB }

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	if err := s.baseDB.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Abort drops all pending operations
func (s *state) Abort() { s.baseDB.Abort() }

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
