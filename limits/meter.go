// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limits

import (
	"errors"
	"fmt"
)

var (
	ErrResourceExceeded       = errors.New("resource limit exceeded")
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")
)

// Limits are the ceilings of one execution unit.
type Limits struct {
	Gas      uint64 `mapstructure:"gas"`
	Memory   uint64 `mapstructure:"memory"`
	MaxDepth int    `mapstructure:"max-depth"`
}

func (l Limits) Validate() error {
	switch {
	case l.Gas == 0:
		return errors.New("gas limit must be positive")
	case l.Memory == 0:
		return errors.New("memory limit must be positive")
	case l.MaxDepth < 0:
		return errors.New("max depth must not be negative")
	}
	return nil
}

// Meter tracks the gas and memory consumed by one execution unit: a
// transaction body, or a VP together with all of its nested evaluations.
// The first overrun is sticky; a Meter is not safe for concurrent use.
type Meter struct {
	limits Limits

	gasUsed uint64
	memUsed uint64
	err     error
}

func NewMeter(l Limits) *Meter {
	return &Meter{limits: l}
}

// ConsumeGas charges [n] units of compute.
func (m *Meter) ConsumeGas(n uint64) error {
	if m.err != nil {
		return m.err
	}
	used, ok := add(m.gasUsed, n)
	if !ok || used > m.limits.Gas {
		err := fmt.Errorf("%w: gas %d + %d > %d", ErrResourceExceeded, m.gasUsed, n, m.limits.Gas)
		// an overrun burns the whole budget
		m.gasUsed = m.limits.Gas
		return m.Abort(err)
	}
	m.gasUsed = used
	return nil
}

// Allocate charges [n] bytes of memory. Memory is never released within an
// execution unit.
func (m *Meter) Allocate(n uint64) error {
	if m.err != nil {
		return m.err
	}
	used, ok := add(m.memUsed, n)
	if !ok || used > m.limits.Memory {
		return m.Abort(fmt.Errorf("%w: memory %d + %d > %d", ErrResourceExceeded, m.memUsed, n, m.limits.Memory))
	}
	m.memUsed = used
	return nil
}

// CheckDepth aborts the meter if [depth] exceeds the configured ceiling.
func (m *Meter) CheckDepth(depth int) error {
	if m.err != nil {
		return m.err
	}
	if depth > m.limits.MaxDepth {
		return m.Abort(fmt.Errorf("%w: depth %d > %d", ErrRecursionLimitExceeded, depth, m.limits.MaxDepth))
	}
	return nil
}

// Abort records [err] as the terminal error of the execution unit, unless
// one is already recorded, and returns the recorded error.
func (m *Meter) Abort(err error) error {
	if m.err == nil {
		m.err = err
	}
	return m.err
}

// Err returns the terminal error, if any.
func (m *Meter) Err() error { return m.err }

func (m *Meter) GasUsed() uint64    { return m.gasUsed }
func (m *Meter) MemoryUsed() uint64 { return m.memUsed }
func (m *Meter) Limits() Limits     { return m.limits }

// RemainingGas is the budget still available to the execution unit.
func (m *Meter) RemainingGas() uint64 {
	if m.gasUsed >= m.limits.Gas {
		return 0
	}
	return m.limits.Gas - m.gasUsed
}

// IsAbort reports whether [err] is one of the limiter's abort errors.
func IsAbort(err error) bool {
	return errors.Is(err, ErrResourceExceeded) || errors.Is(err, ErrRecursionLimitExceeded)
}

func add(a, b uint64) (uint64, bool) {
	c := a + b
	return c, c >= a
}
