// Package testutil provides shared fakes for package tests.
package testutil

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is a scriptable fake of the chain client interface. Zero value
// answers every call with empty results; override the function fields to
// script behaviour per test.
type ChainClient struct {
	BlockNumberFn       func(ctx context.Context) (uint64, error)
	BalanceAtFn         func(ctx context.Context, account common.Address) (*big.Int, error)
	CallContractFn      func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SimulateCallFn      func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SuggestGasPriceFn   func(ctx context.Context) (*big.Int, error)
	PendingNonceAtFn    func(ctx context.Context, account common.Address) (uint64, error)
	SendTransactionFn   func(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceiptFn func(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	TransactionByHashFn func(ctx context.Context, hash common.Hash) (*gethtypes.Transaction, bool, error)

	mu      sync.Mutex
	sentTxs []*gethtypes.Transaction
	calls   map[string]int
}

// BlockNumber returns the scripted chain height, or zero.
func (c *ChainClient) BlockNumber(ctx context.Context) (uint64, error) {
	c.record("block_number")
	if c.BlockNumberFn != nil {
		return c.BlockNumberFn(ctx)
	}
	return 0, nil
}

// BalanceAt returns the scripted balance, or zero.
func (c *ChainClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	c.record("balance_at")
	if c.BalanceAtFn != nil {
		return c.BalanceAtFn(ctx, account)
	}
	return big.NewInt(0), nil
}

// CallContract returns the scripted call result, or empty bytes.
func (c *ChainClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.record("call_contract")
	if c.CallContractFn != nil {
		return c.CallContractFn(ctx, msg)
	}
	return nil, nil
}

// SimulateCall returns the scripted simulation result, or empty bytes.
func (c *ChainClient) SimulateCall(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.record("simulate_call")
	if c.SimulateCallFn != nil {
		return c.SimulateCallFn(ctx, msg)
	}
	return nil, nil
}

// SuggestGasPrice returns the scripted gas price, or 1 gwei.
func (c *ChainClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	c.record("suggest_gas_price")
	if c.SuggestGasPriceFn != nil {
		return c.SuggestGasPriceFn(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}

// PendingNonceAt returns the scripted nonce, or zero.
func (c *ChainClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.record("pending_nonce_at")
	if c.PendingNonceAtFn != nil {
		return c.PendingNonceAtFn(ctx, account)
	}
	return 0, nil
}

// SendTransaction records the transaction and runs the scripted hook.
func (c *ChainClient) SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error {
	c.record("send_transaction")
	c.mu.Lock()
	c.sentTxs = append(c.sentTxs, tx)
	c.mu.Unlock()
	if c.SendTransactionFn != nil {
		return c.SendTransactionFn(ctx, tx)
	}
	return nil
}

// TransactionReceipt returns the scripted receipt, or ethereum.NotFound.
func (c *ChainClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error) {
	c.record("transaction_receipt")
	if c.TransactionReceiptFn != nil {
		return c.TransactionReceiptFn(ctx, txHash)
	}
	return nil, ethereum.NotFound
}

// TransactionByHash returns the scripted lookup, or ethereum.NotFound.
func (c *ChainClient) TransactionByHash(ctx context.Context, hash common.Hash) (*gethtypes.Transaction, bool, error) {
	c.record("transaction_by_hash")
	if c.TransactionByHashFn != nil {
		return c.TransactionByHashFn(ctx, hash)
	}
	return nil, false, ethereum.NotFound
}

// ChainID returns the hardhat test chain ID.
func (c *ChainClient) ChainID() *big.Int {
	return big.NewInt(31337)
}

// Close is a no-op.
func (c *ChainClient) Close() {}

// SentTransactions returns a copy of all transactions submitted so far.
func (c *ChainClient) SentTransactions() []*gethtypes.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*gethtypes.Transaction, len(c.sentTxs))
	copy(out, c.sentTxs)
	return out
}

// Calls returns how many times the named method was invoked.
func (c *ChainClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *ChainClient) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[method]++
}
