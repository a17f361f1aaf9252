// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/ava-labs/vpvm/vpvm"
)

// Client defines vpvm client operations.
type Client interface {
	// SubmitTx queues an encoded transaction and returns its ID
	SubmitTx(ctx context.Context, tx []byte) (ids.ID, error)

	// BuildBlock asks the sequencer to build a block out of its pending
	// transactions
	BuildBlock(ctx context.Context) (*vpvm.BuildBlockReply, error)

	// GetResult fetches the outcome of an applied transaction
	GetResult(ctx context.Context, txID ids.ID) (*vpvm.Result, error)

	// Read fetches the committed value of a storage key
	Read(ctx context.Context, key string) ([]byte, bool, error)

	// LastAccepted fetches the most recently accepted block
	LastAccepted(ctx context.Context) (*vpvm.LastAcceptedReply, error)
}

// New creates a new client object.
func New(uri string) Client {
	return &client{uri: uri, http: http.DefaultClient}
}

type client struct {
	uri  string
	http *http.Client
}

func (cli *client) SubmitTx(ctx context.Context, tx []byte) (ids.ID, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, tx)
	if err != nil {
		return ids.Empty, err
	}
	resp := new(vpvm.TxIDReply)
	err = cli.sendRequest(ctx,
		"vpvm.submitTx",
		&vpvm.SubmitTxArgs{Tx: encoded, Encoding: formatting.Hex},
		resp,
	)
	return resp.TxID, err
}

func (cli *client) BuildBlock(ctx context.Context) (*vpvm.BuildBlockReply, error) {
	resp := new(vpvm.BuildBlockReply)
	return resp, cli.sendRequest(ctx,
		"vpvm.buildBlock",
		&vpvm.EmptyReply{},
		resp,
	)
}

func (cli *client) GetResult(ctx context.Context, txID ids.ID) (*vpvm.Result, error) {
	resp := new(vpvm.Result)
	return resp, cli.sendRequest(ctx,
		"vpvm.getResult",
		&vpvm.GetResultArgs{TxID: txID},
		resp,
	)
}

func (cli *client) Read(ctx context.Context, key string) ([]byte, bool, error) {
	resp := new(vpvm.ReadReply)
	err := cli.sendRequest(ctx,
		"vpvm.read",
		&vpvm.ReadArgs{Key: key, Encoding: formatting.Hex},
		resp,
	)
	if err != nil || !resp.Exists {
		return nil, false, err
	}
	value, err := formatting.Decode(resp.Encoding, resp.Value)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (cli *client) LastAccepted(ctx context.Context) (*vpvm.LastAcceptedReply, error) {
	resp := new(vpvm.LastAcceptedReply)
	return resp, cli.sendRequest(ctx,
		"vpvm.lastAccepted",
		&vpvm.EmptyReply{},
		resp,
	)
}

func (cli *client) sendRequest(ctx context.Context, method string, params interface{}, reply interface{}) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cli.uri, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d", resp.StatusCode)
	}
	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}
