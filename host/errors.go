// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"
)

var ErrLogic = errors.New("logic error")

// LogicError is raised by program logic to signal a fatal condition, such as
// required data being absent. It rejects the transaction (or the VP) and is
// never a node-level fault.
type LogicError struct {
	Msg string
}

func (e *LogicError) Error() string {
	if e == nil || e.Msg == "" {
		return ErrLogic.Error()
	}
	return fmt.Sprintf("%s: %s", ErrLogic, e.Msg)
}

func (e *LogicError) Unwrap() error { return ErrLogic }

// Failf returns a LogicError with a formatted message.
func Failf(format string, args ...interface{}) error {
	return &LogicError{Msg: fmt.Sprintf(format, args...)}
}
