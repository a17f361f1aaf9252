// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limits

// Costs is the gas schedule charged by host calls.
type Costs struct {
	Read     uint64 `mapstructure:"read"`
	Write    uint64 `mapstructure:"write"`
	Delete   uint64 `mapstructure:"delete"`
	PerByte  uint64 `mapstructure:"per-byte"`
	Eval     uint64 `mapstructure:"eval"`
	Verifier uint64 `mapstructure:"verifier"`
}

func DefaultCosts() Costs {
	return Costs{
		Read:     10,
		Write:    20,
		Delete:   20,
		PerByte:  1,
		Eval:     100,
		Verifier: 5,
	}
}

// Sized returns [base] plus [n] bytes at the per-byte rate, saturating on
// overflow so that the charge always exceeds any real budget.
func (c Costs) Sized(base uint64, n int) uint64 {
	perByte := c.PerByte * uint64(n)
	if n != 0 && perByte/uint64(n) != c.PerByte {
		return ^uint64(0)
	}
	total, ok := add(base, perByte)
	if !ok {
		return ^uint64(0)
	}
	return total
}
