package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Account holds the funding account's signing key. All plan submissions for
// one account go through its nonce sequence, serialized by the orchestrator.
type Account struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

// New creates an account from a hex-encoded private key.
func New(hexKey string, logger *zap.Logger) (*Account, error) {
	if hexKey == "" {
		return nil, errors.New("private key cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("derive public key")
	}

	address := crypto.PubkeyToAddress(*publicKey)
	logger.Info("wallet-loaded", zap.String("address", address.Hex()))

	return &Account{
		privateKey: privateKey,
		address:    address,
		logger:     logger,
	}, nil
}

// LoadFromEnv creates an account from the CHAIN_PRIVATE_KEY environment variable.
func LoadFromEnv(logger *zap.Logger) (*Account, error) {
	hexKey := os.Getenv("CHAIN_PRIVATE_KEY")
	if hexKey == "" {
		return nil, errors.New("CHAIN_PRIVATE_KEY not set")
	}

	return New(hexKey, logger)
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.address
}

// SignTx signs a transaction for the given chain using EIP-155.
func (a *Account) SignTx(tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error) {
	signed, err := gethtypes.SignTx(tx, gethtypes.NewEIP155Signer(chainID), a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	return signed, nil
}
