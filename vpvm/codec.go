// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0

	// maxCodecSize bounds an encoded block.
	maxCodecSize = 64 * 1024 * 1024
)

// Codec serializes the blocks and results the sequencer persists.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewManager(maxCodecSize)

	errs := wrappers.Errs{}
	errs.Add(
		c.RegisterType(&Block{}),
		c.RegisterType(&Result{}),
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
