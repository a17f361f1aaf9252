// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"errors"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/vpvm/storage"
)

var errCannotGetLastAccepted = errors.New("cannot get last accepted block")

// Service is the API service for this VM
type Service struct{ vm *VM }

// EmptyReply is the argument of methods that take none
type EmptyReply struct{}

// SubmitTxArgs are the arguments to SubmitTx
type SubmitTxArgs struct {
	// Tx is the hex encoded transaction
	Tx       string              `json:"tx"`
	Encoding formatting.Encoding `json:"encoding"`
}

// TxIDReply is the reply from SubmitTx
type TxIDReply struct {
	TxID ids.ID `json:"txID"`
}

// SubmitTx queues a transaction for the next block.
func (s *Service) SubmitTx(_ *http.Request, args *SubmitTxArgs, reply *TxIDReply) error {
	tx, err := formatting.Decode(args.Encoding, args.Tx)
	if err != nil {
		return err
	}
	reply.TxID, err = s.vm.SubmitTx(tx)
	return err
}

// BuildBlockReply is the reply from BuildBlock
type BuildBlockReply struct {
	BlockID ids.ID      `json:"blockID"`
	Height  json.Uint64 `json:"height"`
	Results []*Result   `json:"results"`
}

// BuildBlock builds and accepts a block out of the pending transactions.
func (s *Service) BuildBlock(_ *http.Request, _ *EmptyReply, reply *BuildBlockReply) error {
	blk, results, err := s.vm.BuildBlock()
	if err != nil {
		return err
	}
	reply.BlockID = blk.ID()
	reply.Height = json.Uint64(blk.Height())
	reply.Results = results
	return nil
}

// GetResultArgs are the arguments to GetResult
type GetResultArgs struct {
	TxID ids.ID `json:"txID"`
}

// GetResult returns the outcome of an applied transaction.
func (s *Service) GetResult(_ *http.Request, args *GetResultArgs, reply *Result) error {
	res, err := s.vm.GetResult(args.TxID)
	if err != nil {
		return err
	}
	*reply = *res
	return nil
}

// ReadArgs are the arguments to Read
type ReadArgs struct {
	// Key is the text form of a storage key
	Key      string              `json:"key"`
	Encoding formatting.Encoding `json:"encoding"`
}

// ReadReply is the reply from Read
type ReadReply struct {
	Exists   bool                `json:"exists"`
	Value    string              `json:"value"`
	Encoding formatting.Encoding `json:"encoding"`
}

// Read returns the committed value of a storage key.
func (s *Service) Read(_ *http.Request, args *ReadArgs, reply *ReadReply) error {
	key, err := storage.Parse(args.Key)
	if err != nil {
		return err
	}
	value, ok, err := s.vm.Read(key)
	if err != nil {
		return err
	}
	reply.Exists = ok
	reply.Encoding = args.Encoding
	if !ok {
		return nil
	}
	reply.Value, err = formatting.EncodeWithChecksum(args.Encoding, value)
	return err
}

// LastAcceptedReply is the reply from LastAccepted
type LastAcceptedReply struct {
	BlockID   ids.ID      `json:"blockID"`
	Height    json.Uint64 `json:"height"`
	Timestamp json.Uint64 `json:"timestamp"`
	Txs       int         `json:"txs"`
}

// LastAccepted returns the most recently accepted block.
func (s *Service) LastAccepted(_ *http.Request, _ *EmptyReply, reply *LastAcceptedReply) error {
	blkID, err := s.vm.LastAccepted()
	if err != nil {
		return errCannotGetLastAccepted
	}
	blk, err := s.vm.GetBlock(blkID)
	if err != nil {
		return err
	}
	reply.BlockID = blkID
	reply.Height = json.Uint64(blk.Height())
	reply.Timestamp = json.Uint64(blk.Tmstmp)
	reply.Txs = len(blk.Txs)
	return nil
}
