// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/avalanchego/version"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/vpvm/envelope"
	"github.com/ava-labs/vpvm/host"
	"github.com/ava-labs/vpvm/state"
	"github.com/ava-labs/vpvm/storage"
)

const Name = "vpvm"

var (
	Version = version.NewDefaultVersion(0, 1, 0)

	// Database prefixes
	heightPrefix   = []byte("height")
	blockPrefix    = []byte("block")
	acceptedPrefix = []byte("accepted")

	// Database markers
	acceptedKey = []byte("acceptedBlock")

	futureBlockLimit = time.Minute // Maximum amount of time that a block can be in the future

	ErrNoPendingTxs = errors.New("there is no transaction to build a block from")
	errNilGenesis   = errors.New("nil genesis")
)

// VM sequences submitted transactions into blocks and applies them through
// the Engine, one block at a time.
type VM struct {
	config  Config
	log     log.Logger
	metrics *prometheus.Registry

	// Clock used for block building and verification
	clock func() time.Time

	state   state.State
	results ResultState
	engine  *Engine

	heightIndex   database.Database
	blockIndex    database.Database
	acceptedIndex database.Database

	mempool *mempool

	// lock serializes block building and acceptance
	lock sync.Mutex
}

// Initialize sets up the VM on [db], writing [genesis] if [db] is fresh.
func (vm *VM) Initialize(
	db database.Database,
	genesis *Genesis,
	config Config,
	registry *host.Registry,
	verifier envelope.Verifier,
) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	vm.config = config
	vm.log = log.New("module", Name)
	if vm.clock == nil {
		vm.clock = time.Now
	}

	vm.metrics = prometheus.NewRegistry()
	vm.state = state.NewState(db)
	results, err := NewResultState(vm.state.ResultDB(), config.ResultCacheSize, vm.metrics)
	if err != nil {
		return err
	}
	vm.results = results
	vm.engine = NewEngine(config, vm.state, vm.results, registry, verifier)
	if err := vm.engine.RegisterMetrics(vm.metrics); err != nil {
		return err
	}

	blockDB := vm.state.BlockDB()
	vm.heightIndex = prefixdb.New(heightPrefix, blockDB)
	vm.blockIndex = prefixdb.New(blockPrefix, blockDB)
	vm.acceptedIndex = prefixdb.New(acceptedPrefix, blockDB)

	mempool, err := newMempool(config.MempoolSize)
	if err != nil {
		return err
	}
	vm.mempool = mempool

	vm.log.Info("initializing", "txPrograms", registry.TxNames(), "vpPrograms", registry.VPNames())
	return vm.initGenesis(genesis)
}

func (vm *VM) initGenesis(genesis *Genesis) error {
	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		lastAccepted, err := vm.LastAccepted()
		if err != nil {
			return err
		}
		vm.log.Info("resuming", "lastAccepted", lastAccepted)
		return nil
	}
	if genesis == nil {
		return errNilGenesis
	}

	defer vm.state.Abort()

	ws, err := genesis.WriteSet()
	if err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	if err := vm.state.Apply(ws); err != nil {
		return err
	}

	// Timestamp of genesis block is given by the genesis. It has no parent.
	genesisBlock, err := newBlock(ids.Empty, 0, genesis.Timestamp, nil)
	if err != nil {
		return fmt.Errorf("error while creating genesis block: %w", err)
	}
	if err := vm.putBlock(genesisBlock); err != nil {
		return err
	}
	if err := vm.acceptedIndex.Put(acceptedKey, genesisBlock.id[:]); err != nil {
		return fmt.Errorf("failed to accept genesis block: %w", err)
	}
	if err := vm.state.SetInitialized(); err != nil {
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}
	if err := vm.state.Commit(); err != nil {
		return err
	}
	vm.log.Info("wrote genesis", "block", genesisBlock.id, "entries", ws.Len())
	return nil
}

// SubmitTx queues [tx] for inclusion in a future block. The bytes are not
// decoded here: malformed transactions are rolled back when applied.
func (vm *VM) SubmitTx(tx []byte) (ids.ID, error) {
	return vm.mempool.Add(tx)
}

func (vm *VM) PendingTxs() int {
	return vm.mempool.Len()
}

// BuildBlock drains the mempool into a block on top of the last accepted
// block, then accepts it.
func (vm *VM) BuildBlock() (*Block, []*Result, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.mempool.Len() == 0 {
		return nil, nil, ErrNoPendingTxs
	}

	parentID, err := vm.LastAccepted()
	if err != nil {
		return nil, nil, err
	}
	parent, err := vm.GetBlock(parentID)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't get parent block: %w", err)
	}

	timestamp := vm.clock().Unix()
	if timestamp < parent.Tmstmp {
		timestamp = parent.Tmstmp
	}
	// Check the header before taking transactions out of the mempool.
	header := &Block{PrntID: parentID, Hght: parent.Hght + 1, Tmstmp: timestamp}
	if err := vm.verify(parent, header); err != nil {
		return nil, nil, err
	}

	txs := vm.mempool.Drain(vm.config.MaxBlockTxs)
	if len(txs) == 0 {
		return nil, nil, ErrNoPendingTxs
	}
	blk, err := newBlock(parentID, header.Hght, timestamp, txs)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't build block: %w", err)
	}
	results, err := vm.accept(blk)
	if err != nil {
		return nil, nil, err
	}
	return blk, results, nil
}

// ParseBlock parses [b] to a Block
func (vm *VM) ParseBlock(b []byte) (*Block, error) {
	blk := &Block{}
	if _, err := Codec.Unmarshal(b, blk); err != nil {
		return nil, err
	}
	blk.initialize(b)
	return blk, nil
}

// verify checks that [blk] extends [parent].
func (vm *VM) verify(parent *Block, blk *Block) error {
	// Ensure [blk]'s height comes right after its parent's height
	if expectedHeight := parent.Height() + 1; expectedHeight != blk.Hght {
		return fmt.Errorf(
			"expected block to have height %d, but found %d",
			expectedHeight,
			blk.Hght,
		)
	}
	if blk.PrntID != parent.ID() {
		return fmt.Errorf("block parent %s is not %s", blk.PrntID, parent.ID())
	}

	// Ensure [blk]'s timestamp is >= its parent's timestamp.
	if blk.Timestamp().Unix() < parent.Timestamp().Unix() {
		return fmt.Errorf("block cannot have timestamp (%s) < parent timestamp (%s)", blk.Timestamp(), parent.Timestamp())
	}

	// Ensure [blk]'s timestamp is not too far ahead of this node's time
	if now := vm.clock(); blk.Timestamp().Unix() >= now.Add(futureBlockLimit).Unix() {
		return fmt.Errorf("block cannot have timestamp (%s) further than (%s) past current time (%s)", blk.Timestamp(), futureBlockLimit, now)
	}
	return nil
}

// accept applies every transaction of [blk] in order, then records [blk]
// as the last accepted block. Everything is persisted by one commit: an
// error means storage failed and nothing of [blk] was kept.
func (vm *VM) accept(blk *Block) ([]*Result, error) {
	results := make([]*Result, 0, len(blk.Txs))
	for _, tx := range blk.Txs {
		res, err := vm.engine.Stage(tx)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if err := vm.putBlock(blk); err != nil {
		vm.engine.Abort()
		return nil, err
	}
	if err := vm.acceptedIndex.Put(acceptedKey, blk.id[:]); err != nil {
		vm.engine.Abort()
		return nil, &state.StorageError{Op: "accept block", Key: blk.id.String(), Err: err}
	}
	if err := vm.state.Commit(); err != nil {
		vm.engine.Abort()
		return nil, err
	}
	for _, res := range results {
		vm.engine.metrics.observe(res)
	}
	vm.log.Info("accepted block", "block", blk.id, "height", blk.Hght, "txs", len(blk.Txs))
	return results, nil
}

func (vm *VM) putBlock(blk *Block) error {
	heightBytes := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(heightBytes, blk.Height())

	if err := vm.heightIndex.Put(heightBytes, blk.id[:]); err != nil {
		return &state.StorageError{Op: "put block height", Key: blk.id.String(), Err: err}
	}
	if err := vm.blockIndex.Put(blk.id[:], blk.bytes); err != nil {
		return &state.StorageError{Op: "put block", Key: blk.id.String(), Err: err}
	}
	return nil
}

func (vm *VM) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	heightBytes := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(heightBytes, height)

	blkIDBytes, err := vm.heightIndex.Get(heightBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to get height index at %d: %w", height, err)
	}

	blkID, err := ids.ToID(blkIDBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to parse blkIDBytes at height %d: %w", height, err)
	}
	return blkID, nil
}

func (vm *VM) GetBlock(blkID ids.ID) (*Block, error) {
	blkBytes, err := vm.blockIndex.Get(blkID[:])
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", blkID, err)
	}

	blk, err := vm.ParseBlock(blkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block from disk %s: %w", blkID, err)
	}
	return blk, nil
}

func (vm *VM) LastAccepted() (ids.ID, error) {
	blkIDBytes, err := vm.acceptedIndex.Get(acceptedKey)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to get last accepted blockID: %w", err)
	}

	blkID, err := ids.ToID(blkIDBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to parse last accepted blockID from disk: %w", err)
	}
	return blkID, nil
}

// GetResult returns the outcome of the transaction [txID].
func (vm *VM) GetResult(txID ids.ID) (*Result, error) {
	return vm.results.GetResult(txID)
}

// Read returns the committed value of [key].
func (vm *VM) Read(key storage.Key) ([]byte, bool, error) {
	return vm.state.Ledger().Get(key)
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(&Service{vm: vm}, Name)
}

// Metrics returns the VM's metrics.
func (vm *VM) Metrics() prometheus.Gatherer {
	return vm.metrics
}

// Shutdown is called when the node is shutting down.
func (vm *VM) Shutdown() error {
	if vm.state == nil {
		return nil
	}
	return vm.state.Close()
}
