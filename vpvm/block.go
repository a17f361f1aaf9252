// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// Block is an ordered batch of transactions applied by the sequencer.
type Block struct {
	PrntID ids.ID   `serialize:"true" json:"parentID"`  // parent's ID
	Hght   uint64   `serialize:"true" json:"height"`    // This block's height. The genesis block is at height 0.
	Tmstmp int64    `serialize:"true" json:"timestamp"` // Time this block was proposed at
	Txs    [][]byte `serialize:"true" json:"txs"`       // encoded transactions, applied in order

	id    ids.ID // hold this block's ID
	bytes []byte // this block's encoded bytes
}

func newBlock(parentID ids.ID, height uint64, timestamp int64, txs [][]byte) (*Block, error) {
	blk := &Block{
		PrntID: parentID,
		Hght:   height,
		Tmstmp: timestamp,
		Txs:    txs,
	}
	bytes, err := Codec.Marshal(CodecVersion, blk)
	if err != nil {
		return nil, err
	}
	blk.initialize(bytes)
	return blk, nil
}

func (b *Block) initialize(bytes []byte) {
	b.bytes = bytes
	b.id = hashing.ComputeHash256Array(bytes)
}

// ID returns the ID of this block
func (b *Block) ID() ids.ID { return b.id }

// Parent returns [b]'s parent's ID
func (b *Block) Parent() ids.ID { return b.PrntID }

// Height returns this block's height. The genesis block has height 0.
func (b *Block) Height() uint64 { return b.Hght }

func (b *Block) Timestamp() time.Time { return time.Unix(b.Tmstmp, 0) }

// Bytes returns the byte repr. of this block
func (b *Block) Bytes() []byte { return b.bytes }
