// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vpvm/envelope"
)

const maxEvalRequestSize = 1024 * 1024

var errEvalTrailing = errors.New("trailing bytes after eval request")

// EvalRequest asks a validity predicate to evaluate another one.
type EvalRequest struct {
	VPReference []byte
	Input       []byte
}

func (r *EvalRequest) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: maxEvalRequestSize}
	p.PackBytes(r.VPReference)
	p.PackBytes(r.Input)
	if p.Errored() {
		return nil, p.Err
	}
	return p.Bytes, nil
}

// ParseEvalRequest decodes an EvalRequest; failures wrap envelope.ErrDecode.
func ParseEvalRequest(b []byte) (*EvalRequest, error) {
	p := wrappers.Packer{Bytes: b, MaxSize: maxEvalRequestSize}
	r := &EvalRequest{
		VPReference: append([]byte{}, p.UnpackBytes()...),
		Input:       append([]byte{}, p.UnpackBytes()...),
	}
	if p.Errored() {
		return nil, fmt.Errorf("%w: eval request: %s", envelope.ErrDecode, p.Err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %s", envelope.ErrDecode, errEvalTrailing)
	}
	return r, nil
}
