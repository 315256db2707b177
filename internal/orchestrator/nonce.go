package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
)

// NonceManager serializes submissions through one account's nonce sequence.
// It is the single writer for the account: the lock is held across sign and
// send so two plans can never claim the same nonce or submit out of order.
type NonceManager struct {
	mu      sync.Mutex
	client  chain.Client
	account common.Address
	next    uint64
	synced  bool
}

// NewNonceManager creates a manager for one funding account.
func NewNonceManager(client chain.Client, account common.Address) *NonceManager {
	return &NonceManager{
		client:  client,
		account: account,
	}
}

// Submit runs fn with the next nonce, holding the account's submission slot
// for the duration. The nonce advances only when fn succeeds; on failure the
// manager resyncs from the chain before the next submission, since the node
// may or may not have accepted the transaction.
func (n *NonceManager) Submit(ctx context.Context, fn func(nonce uint64) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.synced {
		nonce, err := n.client.PendingNonceAt(ctx, n.account)
		if err != nil {
			return fmt.Errorf("sync nonce: %w", err)
		}
		n.next = nonce
		n.synced = true
	}

	if err := fn(n.next); err != nil {
		n.synced = false
		return err
	}

	n.next++
	return nil
}
