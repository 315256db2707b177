package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
)

const balanceOfABIJSON = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// Balances holds on-chain balances for the funding account.
type Balances struct {
	Native *big.Int // gas token, in wei
	Tokens map[common.Address]*big.Int
}

// GetBalances fetches the native balance plus the given ERC20 token balances.
func GetBalances(
	ctx context.Context,
	client chain.Client,
	owner common.Address,
	tokens []common.Address,
) (*Balances, error) {
	native, err := client.BalanceAt(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get native balance: %w", err)
	}

	balances := &Balances{
		Native: native,
		Tokens: make(map[common.Address]*big.Int, len(tokens)),
	}

	for _, token := range tokens {
		balance, err := getERC20Balance(ctx, client, owner, token)
		if err != nil {
			return nil, fmt.Errorf("get token balance %s: %w", token.Hex(), err)
		}
		balances.Tokens[token] = balance
	}

	return balances, nil
}

func getERC20Balance(
	ctx context.Context,
	client chain.Client,
	owner common.Address,
	token common.Address,
) (*big.Int, error) {
	parsedABI, err := abi.JSON(strings.NewReader(balanceOfABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	data, err := parsedABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack ABI: %w", err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}
