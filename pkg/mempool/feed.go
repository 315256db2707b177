package mempool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// Feed subscribes to newPendingTransactions over a raw JSON-RPC WebSocket,
// resolves transaction bodies through the chain client, and emits them on a
// buffered channel. The feed reconnects with exponential backoff and never
// terminates under normal operation.
type Feed struct {
	wsURL       string
	client      chain.Client
	logger      *zap.Logger
	reconnecter *ReconnectManager
	txChan      chan *types.PendingTx
	dialTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	wg   sync.WaitGroup
}

// Config holds feed configuration.
type Config struct {
	WSURL                 string
	Client                chain.Client
	Logger                *zap.Logger
	DialTimeout           time.Duration
	BufferSize            int
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
}

// subscribeRequest is the eth_subscribe JSON-RPC request.
type subscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// subscriptionMessage covers both the subscription confirmation and
// subsequent eth_subscription notifications.
type subscriptionMessage struct {
	Method string `json:"method"`
	Params struct {
		Subscription string `json:"subscription"`
		Result       string `json:"result"`
	} `json:"params"`
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a new mempool feed.
func New(cfg *Config) (*Feed, error) {
	if cfg.WSURL == "" {
		return nil, &types.ConfigError{Field: "CHAIN_MEMPOOL_WS_URL", Reason: "cannot be empty"}
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	return &Feed{
		wsURL:       cfg.WSURL,
		client:      cfg.Client,
		logger:      cfg.Logger,
		dialTimeout: dialTimeout,
		txChan:      make(chan *types.PendingTx, bufferSize),
		reconnecter: NewReconnectManager(ReconnectConfig{
			InitialDelay:      cfg.ReconnectInitialDelay,
			MaxDelay:          cfg.ReconnectMaxDelay,
			BackoffMultiplier: cfg.ReconnectBackoffMult,
			JitterPercent:     0.2,
		}, cfg.Logger),
	}, nil
}

// TxChan returns the channel of observed pending transactions.
func (f *Feed) TxChan() <-chan *types.PendingTx {
	return f.txChan
}

// Start connects and begins streaming pending transactions until the context
// is cancelled. Read failures trigger reconnection, not termination.
func (f *Feed) Start(ctx context.Context) error {
	err := f.connect(ctx)
	if err != nil {
		return fmt.Errorf("initial mempool connect: %w", err)
	}

	f.wg.Add(1)
	go f.readLoop(ctx)

	return nil
}

func (f *Feed) connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, f.dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.wsURL, err)
	}

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []any{"newPendingTransactions"},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		conn.Close()
		return fmt.Errorf("marshal subscribe request: %w", err)
	}

	err = conn.WriteMessage(websocket.TextMessage, payload)
	if err != nil {
		conn.Close()
		return fmt.Errorf("send subscribe request: %w", err)
	}

	// First frame is the subscription confirmation.
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("read subscribe response: %w", err)
	}

	var resp subscriptionMessage
	err = json.Unmarshal(raw, &resp)
	if err != nil {
		conn.Close()
		return fmt.Errorf("decode subscribe response: %w", err)
	}
	if resp.Error != nil {
		conn.Close()
		return fmt.Errorf("subscribe rejected: %s", resp.Error.Message)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.logger.Info("mempool-subscribed",
		zap.String("ws-url", f.wsURL),
		zap.String("subscription-id", resp.Result))

	return nil
}

func (f *Feed) readLoop(ctx context.Context) {
	defer f.wg.Done()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("mempool-feed-stopping")
			close(f.txChan)
			return
		default:
		}

		f.mu.Lock()
		conn := f.conn
		f.mu.Unlock()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				close(f.txChan)
				return
			}

			f.logger.Warn("mempool-read-failed", zap.Error(err))
			conn.Close()

			err = f.reconnecter.Reconnect(ctx, f.connect)
			if err != nil {
				close(f.txChan)
				return
			}
			continue
		}

		f.handleMessage(ctx, raw)
	}
}

func (f *Feed) handleMessage(ctx context.Context, raw []byte) {
	var msg subscriptionMessage
	err := json.Unmarshal(raw, &msg)
	if err != nil {
		f.logger.Warn("mempool-decode-failed", zap.Error(err))
		return
	}

	if msg.Method != "eth_subscription" || msg.Params.Result == "" {
		return
	}

	MessagesReceivedTotal.Inc()

	hash := common.HexToHash(msg.Params.Result)

	// Resolve the transaction body. The hash may already be gone; that is
	// normal mempool churn, not a feed failure.
	tx, isPending, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			TxResolutionsTotal.WithLabelValues("gone").Inc()
			return
		}
		f.logger.Debug("mempool-tx-resolve-failed",
			zap.String("tx-hash", hash.Hex()),
			zap.Error(err))
		TxResolutionsTotal.WithLabelValues("error").Inc()
		return
	}
	if !isPending {
		TxResolutionsTotal.WithLabelValues("mined").Inc()
		return
	}

	pending := toPendingTx(hash, tx)
	if pending == nil {
		return
	}

	TxResolutionsTotal.WithLabelValues("ok").Inc()

	select {
	case f.txChan <- pending:
	default:
		f.logger.Warn("mempool-channel-full", zap.String("tx-hash", hash.Hex()))
		DroppedTxTotal.Inc()
	}
}

func toPendingTx(hash common.Hash, tx *gethtypes.Transaction) *types.PendingTx {
	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return nil
	}
	gasPrice, overflow := uint256.FromBig(tx.GasPrice())
	if overflow {
		return nil
	}

	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		from = common.Address{}
	}

	return &types.PendingTx{
		Hash:     hash,
		From:     from,
		To:       tx.To(),
		Value:    value,
		GasPrice: gasPrice,
		Input:    tx.Data(),
	}
}

// Close shuts the feed down.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.mu.Unlock()

	f.wg.Wait()
	f.logger.Info("mempool-feed-closed")

	return nil
}
