// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Status is the position of a transaction in the commit protocol.
type Status uint8

const (
	Unknown Status = iota
	Decoding
	Verifying
	Executing
	Validating
	Committed
	RolledBack
)

var statusNames = map[Status]string{
	Unknown:    "Unknown",
	Decoding:   "Decoding",
	Verifying:  "Verifying",
	Executing:  "Executing",
	Validating: "Validating",
	Committed:  "Committed",
	RolledBack: "RolledBack",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal reports whether no further transition can follow [s].
func (s Status) Terminal() bool { return s == Committed || s == RolledBack }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for status, name := range statusNames {
		if name == string(b) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Verdict is the outcome of one implicated address's validity predicate.
type Verdict struct {
	Address  ids.ShortID `serialize:"true" json:"address"`
	Accepted bool        `serialize:"true" json:"accepted"`
	Error    string      `serialize:"true" json:"error,omitempty"`
	GasUsed  uint64      `serialize:"true" json:"gasUsed"`
}

func (v Verdict) failed(err error) (Verdict, error) {
	v.Accepted = false
	v.Error = err.Error()
	return v, err
}

// Result records how a transaction went through the commit protocol.
type Result struct {
	TxID     ids.ID `serialize:"true" json:"txID"`
	Status   Status `serialize:"true" json:"status"`
	FailedIn Status `serialize:"true" json:"failedIn,omitempty"`
	Kind     string `serialize:"true" json:"kind,omitempty"`
	Reason   string `serialize:"true" json:"reason,omitempty"`
	GasUsed  uint64 `serialize:"true" json:"gasUsed"`

	ChangedKeys []string      `serialize:"true" json:"changedKeys"`
	Verifiers   []ids.ShortID `serialize:"true" json:"verifiers"`
	Verdicts    []Verdict     `serialize:"true" json:"verdicts"`
}

func newResult(txID ids.ID) *Result {
	return &Result{TxID: txID, Status: Decoding}
}

// advance moves [r] to the next non-terminal step.
func (r *Result) advance(next Status) {
	if r.Status.Terminal() || next <= r.Status {
		panic(fmt.Sprintf("invalid transition %s -> %s", r.Status, next))
	}
	r.Status = next
}

// rollBack ends [r] in RolledBack, recording the step that failed.
func (r *Result) rollBack(cause error) {
	r.FailedIn = r.Status
	r.Status = RolledBack
	r.Kind = ErrorKind(cause)
	r.Reason = cause.Error()
}

func (r *Result) commit() {
	r.Status = Committed
}

func (r *Result) Committed() bool { return r.Status == Committed }
