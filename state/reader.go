// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/vpvm/storage"
)

var (
	_ Reader = (*dbReader)(nil)
	_ Reader = (*overlay)(nil)
)

// Reader is a read-only view of ledger storage. A missing value is reported
// as ok == false with a nil error; errors are always *StorageError.
type Reader interface {
	Get(key storage.Key) (value []byte, ok bool, err error)
}

// StorageError signals a failure of the backing store. It is never the
// consequence of a transaction's content and must not be turned into a
// rejection.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s of %q: %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether [err] wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

type dbReader struct {
	db database.Database
}

// NewDBReader returns a Reader over [db], keyed by the key text.
func NewDBReader(db database.Database) Reader {
	return &dbReader{db: db}
}

func (r *dbReader) Get(key storage.Key) ([]byte, bool, error) {
	v, err := r.db.Get(key.Bytes())
	switch {
	case err == database.ErrNotFound:
		return nil, false, nil
	case err != nil:
		return nil, false, &StorageError{Op: "get", Key: key.String(), Err: err}
	}
	return v, true, nil
}

type overlay struct {
	base Reader
	ws   *WriteSet
}

// NewOverlay returns the view of [base] with [ws] applied on top.
func NewOverlay(base Reader, ws *WriteSet) Reader {
	return &overlay{base: base, ws: ws}
}

func (o *overlay) Get(key storage.Key) ([]byte, bool, error) {
	if op, ok := o.ws.Get(key); ok {
		if op.Deleted {
			return nil, false, nil
		}
		return op.Value, true, nil
	}
	return o.base.Get(key)
}
