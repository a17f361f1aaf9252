// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/vpvm/limits"
)

const (
	defaultVPWorkers       = 4
	defaultMaxBlockTxs     = 256
	defaultMempoolSize     = 4096
	defaultResultCacheSize = 8192
)

var (
	errNoWorkers      = errors.New("vp-workers must be positive")
	errNoBlockTxs     = errors.New("max-block-txs must be positive")
	errNoMempoolSpace = errors.New("mempool-size must be positive")
)

// Config tunes the engine and the sequencer around it.
type Config struct {
	TxLimits limits.Limits `mapstructure:"tx-limits"`
	VPLimits limits.Limits `mapstructure:"vp-limits"`
	Costs    limits.Costs  `mapstructure:"costs"`

	// VPWorkers bounds the number of validity predicates run concurrently
	// for one transaction.
	VPWorkers int `mapstructure:"vp-workers"`
	// DefaultVP is run for implicated addresses that have no validity
	// predicate of their own. Empty means such addresses reject.
	DefaultVP string `mapstructure:"default-vp"`

	MaxBlockTxs     int `mapstructure:"max-block-txs"`
	MempoolSize     int `mapstructure:"mempool-size"`
	ResultCacheSize int `mapstructure:"result-cache-size"`
}

func DefaultConfig() Config {
	return Config{
		TxLimits: limits.Limits{
			Gas:    1_000_000,
			Memory: 16 * 1024 * 1024,
		},
		VPLimits: limits.Limits{
			Gas:      1_000_000,
			Memory:   16 * 1024 * 1024,
			MaxDepth: 8,
		},
		Costs:           limits.DefaultCosts(),
		VPWorkers:       defaultVPWorkers,
		MaxBlockTxs:     defaultMaxBlockTxs,
		MempoolSize:     defaultMempoolSize,
		ResultCacheSize: defaultResultCacheSize,
	}
}

func (c Config) Validate() error {
	if err := c.TxLimits.Validate(); err != nil {
		return fmt.Errorf("tx-limits: %w", err)
	}
	if err := c.VPLimits.Validate(); err != nil {
		return fmt.Errorf("vp-limits: %w", err)
	}
	switch {
	case c.VPWorkers <= 0:
		return errNoWorkers
	case c.MaxBlockTxs <= 0:
		return errNoBlockTxs
	case c.MempoolSize <= 0:
		return errNoMempoolSpace
	}
	return nil
}
