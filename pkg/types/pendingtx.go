package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PendingTx is a transaction observed in the mempool, decoded from the
// newPendingTransactions subscription feed.
type PendingTx struct {
	Hash     common.Hash
	From     common.Address
	To       *common.Address
	Value    *uint256.Int
	GasPrice *uint256.Int
	Input    []byte
}

// Subject converts the pending transaction into an opportunity subject.
func (t *PendingTx) Subject() PendingTxSubject {
	return PendingTxSubject{
		Hash:     t.Hash,
		From:     t.From,
		To:       t.To,
		Value:    t.Value,
		GasPrice: t.GasPrice,
	}
}
