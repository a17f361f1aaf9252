// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
	"github.com/ava-labs/vpvm/token"
)

// Genesis is the initial ledger: validity predicate assignments, token
// balances and raw storage entries.
type Genesis struct {
	Timestamp int64            `json:"timestamp" mapstructure:"timestamp"`
	Accounts  []GenesisAccount `json:"accounts" mapstructure:"accounts"`
	Balances  []GenesisBalance `json:"balances" mapstructure:"balances"`
	Storage   []GenesisEntry   `json:"storage" mapstructure:"storage"`
}

// GenesisAccount assigns the validity predicate [VP] to [Address].
type GenesisAccount struct {
	Address string `json:"address" mapstructure:"address"`
	VP      string `json:"vp" mapstructure:"vp"`
}

// GenesisBalance credits [Owner] with [Amount] of [Token].
type GenesisBalance struct {
	Token  string `json:"token" mapstructure:"token"`
	Owner  string `json:"owner" mapstructure:"owner"`
	Amount string `json:"amount" mapstructure:"amount"`
}

// GenesisEntry writes the hex encoded [Value] at [Key].
type GenesisEntry struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// WriteSet converts [g] into the writes that seed the ledger.
func (g *Genesis) WriteSet() (*state.WriteSet, error) {
	ws := state.NewWriteSet()
	for i, acc := range g.Accounts {
		addr, err := ids.ShortFromString(acc.Address)
		if err != nil {
			return nil, fmt.Errorf("account %d: invalid address %q: %w", i, acc.Address, err)
		}
		if acc.VP == "" {
			return nil, fmt.Errorf("account %d: missing validity predicate", i)
		}
		if err := ws.Put(storage.ValidityPredicateKey(addr), []byte(acc.VP)); err != nil {
			return nil, err
		}
	}
	for i, bal := range g.Balances {
		tok, err := ids.ShortFromString(bal.Token)
		if err != nil {
			return nil, fmt.Errorf("balance %d: invalid token %q: %w", i, bal.Token, err)
		}
		owner, err := ids.ShortFromString(bal.Owner)
		if err != nil {
			return nil, fmt.Errorf("balance %d: invalid owner %q: %w", i, bal.Owner, err)
		}
		amount, err := token.ParseAmount(bal.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		if err := ws.Put(token.BalanceKey(tok, owner), amount.Bytes()); err != nil {
			return nil, err
		}
	}
	for i, entry := range g.Storage {
		key, err := storage.Parse(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("storage %d: %w", i, err)
		}
		value, err := formatting.Decode(formatting.Hex, entry.Value)
		if err != nil {
			return nil, fmt.Errorf("storage %d: invalid value: %w", i, err)
		}
		if err := ws.Put(key, value); err != nil {
			return nil, err
		}
	}
	ws.Freeze()
	return ws, nil
}
