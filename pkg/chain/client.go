package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// Client is the read/write boundary to the chain. Scanners, the evaluator and
// the orchestrator depend on this interface; the concrete transport is an
// implementation detail.
type Client interface {
	// BlockNumber returns the current chain height.
	BlockNumber(ctx context.Context) (uint64, error)

	// BalanceAt returns the native-token balance of an account.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)

	// CallContract executes a read-only contract call against latest state.
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// SimulateCall dry-runs a call and distinguishes an on-chain revert from
	// a transport failure: reverts come back as *types.SimulationRevertError,
	// transport failures as *types.TransientError.
	SimulateCall(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// SuggestGasPrice returns the current fee-market estimate.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// PendingNonceAt returns the next nonce for an account including pending txs.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error

	// TransactionReceipt polls for a receipt; ethereum.NotFound while pending.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)

	// TransactionByHash looks a transaction up, reporting whether it is still
	// pending. Used for subject liveness re-checks.
	TransactionByHash(ctx context.Context, hash common.Hash) (*gethtypes.Transaction, bool, error)

	// ChainID returns the configured chain ID for transaction signing.
	ChainID() *big.Int

	// Close releases the underlying connection.
	Close()
}

// RPCClient implements Client over an HTTP/WS JSON-RPC endpoint.
type RPCClient struct {
	ec      *ethclient.Client
	chainID *big.Int
	logger  *zap.Logger
}

// Dial connects to the given RPC endpoint.
func Dial(ctx context.Context, rpcURL string, chainID int64, logger *zap.Logger) (*RPCClient, error) {
	if rpcURL == "" {
		return nil, &types.ConfigError{Field: "CHAIN_RPC_URL", Reason: "cannot be empty"}
	}

	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	logger.Info("chain-client-connected",
		zap.String("rpc-url", rpcURL),
		zap.Int64("chain-id", chainID))

	return &RPCClient{
		ec:      ec,
		chainID: big.NewInt(chainID),
		logger:  logger,
	}, nil
}

// BlockNumber returns the current chain height.
func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	height, err := c.ec.BlockNumber(ctx)
	observeRPC("block_number", start, err)
	if err != nil {
		return 0, types.Transient("block number", err)
	}
	return height, nil
}

// BalanceAt returns the native-token balance of an account.
func (c *RPCClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	start := time.Now()
	balance, err := c.ec.BalanceAt(ctx, account, nil)
	observeRPC("balance_at", start, err)
	if err != nil {
		return nil, types.Transient("balance at", err)
	}
	return balance, nil
}

// CallContract executes a read-only contract call against latest state.
func (c *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	start := time.Now()
	result, err := c.ec.CallContract(ctx, msg, nil)
	observeRPC("call_contract", start, err)
	if err != nil {
		return nil, types.Transient("call contract", err)
	}
	return result, nil
}

// SimulateCall dry-runs a call, classifying reverts separately from
// transport failures.
func (c *RPCClient) SimulateCall(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	start := time.Now()
	result, err := c.ec.CallContract(ctx, msg, nil)
	observeRPC("simulate_call", start, err)
	if err != nil {
		if isRevert(err) {
			return nil, &types.SimulationRevertError{Reason: err.Error()}
		}
		return nil, types.Transient("simulate call", err)
	}
	return result, nil
}

// SuggestGasPrice returns the current fee-market estimate.
func (c *RPCClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	start := time.Now()
	price, err := c.ec.SuggestGasPrice(ctx)
	observeRPC("suggest_gas_price", start, err)
	if err != nil {
		return nil, types.Transient("suggest gas price", err)
	}
	return price, nil
}

// PendingNonceAt returns the next nonce for an account including pending txs.
func (c *RPCClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	start := time.Now()
	nonce, err := c.ec.PendingNonceAt(ctx, account)
	observeRPC("pending_nonce_at", start, err)
	if err != nil {
		return 0, types.Transient("pending nonce", err)
	}
	return nonce, nil
}

// SendTransaction submits a signed transaction.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error {
	start := time.Now()
	err := c.ec.SendTransaction(ctx, tx)
	observeRPC("send_transaction", start, err)
	if err != nil {
		return types.Transient("send transaction", err)
	}
	return nil
}

// TransactionReceipt polls for a receipt.
func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error) {
	start := time.Now()
	receipt, err := c.ec.TransactionReceipt(ctx, txHash)
	observeRPC("transaction_receipt", start, err)
	if err != nil {
		// ethereum.NotFound is expected while pending; pass it through
		// unwrapped so callers can detect it.
		if err == ethereum.NotFound {
			return nil, err
		}
		return nil, types.Transient("transaction receipt", err)
	}
	return receipt, nil
}

// TransactionByHash looks a transaction up with its pending flag.
func (c *RPCClient) TransactionByHash(ctx context.Context, hash common.Hash) (*gethtypes.Transaction, bool, error) {
	start := time.Now()
	tx, isPending, err := c.ec.TransactionByHash(ctx, hash)
	observeRPC("transaction_by_hash", start, err)
	if err != nil {
		if err == ethereum.NotFound {
			return nil, false, err
		}
		return nil, false, types.Transient("transaction by hash", err)
	}
	return tx, isPending, nil
}

// ChainID returns the configured chain ID.
func (c *RPCClient) ChainID() *big.Int {
	return c.chainID
}

// Close releases the underlying connection.
func (c *RPCClient) Close() {
	c.ec.Close()
}

// isRevert detects execution reverts in RPC error strings. Node
// implementations disagree on the exact wording.
func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "revert") || strings.Contains(msg, "execution error")
}
