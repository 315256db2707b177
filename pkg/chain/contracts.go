package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Minimal ABI fragments for the contracts the strategies touch. Parsed once
// at package load; a parse failure is a programmer error.
const (
	routerABIJSON = `[
		{"name":"getAmountsOut","type":"function","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
		{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
	]`

	lendingPoolABIJSON = `[
		{"name":"flashLoanSimple","type":"function","stateMutability":"nonpayable","inputs":[{"name":"receiverAddress","type":"address"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"params","type":"bytes"},{"name":"referralCode","type":"uint16"}],"outputs":[]},
		{"name":"getReserveData","type":"function","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"availableLiquidity","type":"uint256"}]},
		{"name":"getUserAccountData","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"totalCollateralBase","type":"uint256"},{"name":"totalDebtBase","type":"uint256"},{"name":"availableBorrowsBase","type":"uint256"},{"name":"currentLiquidationThreshold","type":"uint256"},{"name":"ltv","type":"uint256"},{"name":"healthFactor","type":"uint256"}]},
		{"name":"liquidationCall","type":"function","stateMutability":"nonpayable","inputs":[{"name":"collateralAsset","type":"address"},{"name":"debtAsset","type":"address"},{"name":"user","type":"address"},{"name":"debtToCover","type":"uint256"},{"name":"receiveAToken","type":"bool"}],"outputs":[]},
		{"name":"repay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"to","type":"address"}],"outputs":[]}
	]`

	aggregatorABIJSON = `[
		{"name":"latestAnswer","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]}
	]`

	executorABIJSON = `[
		{"name":"run","type":"function","stateMutability":"payable","inputs":[{"name":"targets","type":"address[]"},{"name":"payloads","type":"bytes[]"},{"name":"usePriorOutput","type":"bool[]"}],"outputs":[]}
	]`
)

//nolint:gochecknoglobals // Parsed ABI singletons
var (
	RouterABI      = mustParseABI(routerABIJSON)
	LendingPoolABI = mustParseABI(lendingPoolABIJSON)
	AggregatorABI  = mustParseABI(aggregatorABIJSON)
	ExecutorABI    = mustParseABI(executorABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}

// QueryAmountsOut asks a router for the output amounts of a swap path.
func QueryAmountsOut(
	ctx context.Context,
	client Client,
	router common.Address,
	amountIn *uint256.Int,
	path []common.Address,
) (*uint256.Int, error) {
	data, err := RouterABI.Pack("getAmountsOut", amountIn.ToBig(), path)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data})
	if err != nil {
		return nil, err
	}

	unpacked, err := RouterABI.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}

	amounts, ok := unpacked[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("unexpected amounts from router %s", router.Hex())
	}

	out, overflow := uint256.FromBig(amounts[len(amounts)-1])
	if overflow {
		return nil, fmt.Errorf("router amount overflows uint256")
	}

	return out, nil
}

// QueryUint256 calls a view method expected to return a single uint256.
func QueryUint256(
	ctx context.Context,
	client Client,
	contractABI abi.ABI,
	contract common.Address,
	method string,
	args ...any,
) (*uint256.Int, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data})
	if err != nil {
		return nil, err
	}

	value := new(big.Int).SetBytes(result)
	out, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%s result overflows uint256", method)
	}

	return out, nil
}

// AccountData is the subset of getUserAccountData the liquidation scanner
// uses. HealthFactor is scaled by 1e18; below 1e18 the position is
// liquidatable.
type AccountData struct {
	TotalCollateral *uint256.Int
	TotalDebt       *uint256.Int
	HealthFactor    *uint256.Int
}

// QueryAccountData reads a borrower's position from an Aave-style pool.
func QueryAccountData(
	ctx context.Context,
	client Client,
	pool common.Address,
	borrower common.Address,
) (*AccountData, error) {
	data, err := LendingPoolABI.Pack("getUserAccountData", borrower)
	if err != nil {
		return nil, fmt.Errorf("pack getUserAccountData: %w", err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data})
	if err != nil {
		return nil, err
	}

	unpacked, err := LendingPoolABI.Unpack("getUserAccountData", result)
	if err != nil {
		return nil, fmt.Errorf("unpack getUserAccountData: %w", err)
	}

	collateral, err := toUint256(unpacked[0])
	if err != nil {
		return nil, fmt.Errorf("total collateral: %w", err)
	}
	debt, err := toUint256(unpacked[1])
	if err != nil {
		return nil, fmt.Errorf("total debt: %w", err)
	}
	hf, err := toUint256(unpacked[len(unpacked)-1])
	if err != nil {
		return nil, fmt.Errorf("health factor: %w", err)
	}

	return &AccountData{
		TotalCollateral: collateral,
		TotalDebt:       debt,
		HealthFactor:    hf,
	}, nil
}

func toUint256(v any) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected ABI output type %T", v)
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("value overflows uint256")
	}
	return out, nil
}
