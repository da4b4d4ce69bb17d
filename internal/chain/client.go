// Package chain owns on-chain access: RPC connectivity, signing, the
// transaction submission/retry manager, and the contract bindings.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the slice of the RPC client the transaction manager needs;
// *ethclient.Client satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// CallBackend is the read-only slice used by contract view calls.
type CallBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client wraps ethclient with a chain-ID sanity check at dial time.
type Client struct {
	*ethclient.Client
	chainID *big.Int
}

// Dial connects to the RPC endpoint and verifies it serves the expected chain.
func Dial(ctx context.Context, rawURL string, expectedChainID int64) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	id, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	if expectedChainID != 0 && id.Int64() != expectedChainID {
		ec.Close()
		return nil, fmt.Errorf("rpc serves chain %d, expected %d", id.Int64(), expectedChainID)
	}
	return &Client{Client: ec, chainID: id}, nil
}

// ID returns the chain identifier confirmed at dial time.
func (c *Client) ID() *big.Int { return new(big.Int).Set(c.chainID) }
