package orchestrator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
)

// abiForMethod maps a step method to the contract ABI that packs it.
func abiForMethod(method string) (abi.ABI, error) {
	if _, ok := chain.RouterABI.Methods[method]; ok {
		return chain.RouterABI, nil
	}
	if _, ok := chain.LendingPoolABI.Methods[method]; ok {
		return chain.LendingPoolABI, nil
	}
	return abi.ABI{}, fmt.Errorf("no ABI for method %q", method)
}

// buildCalldata packs a plan into one transaction. A single-step plan calls
// its target directly; a multi-step plan goes through the on-chain executor
// contract, which runs the steps in order and reverts the lot if any step
// fails, feeding each step's output forward where the plan asks for it.
func buildCalldata(plan *types.ExecutionPlan, executor common.Address) (common.Address, []byte, error) {
	if len(plan.Steps) == 0 {
		return common.Address{}, nil, fmt.Errorf("plan %s has no steps", plan.ID)
	}

	if len(plan.Steps) == 1 {
		step := plan.Steps[0]
		data, err := packStep(step)
		if err != nil {
			return common.Address{}, nil, err
		}
		return step.Target, data, nil
	}

	targets := make([]common.Address, len(plan.Steps))
	payloads := make([][]byte, len(plan.Steps))
	usePrior := make([]bool, len(plan.Steps))
	for i, step := range plan.Steps {
		data, err := packStep(step)
		if err != nil {
			return common.Address{}, nil, fmt.Errorf("step %d: %w", i, err)
		}
		targets[i] = step.Target
		payloads[i] = data
		usePrior[i] = step.UsePriorOutput
	}

	data, err := chain.ExecutorABI.Pack("run", targets, payloads, usePrior)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("pack executor run: %w", err)
	}

	return executor, data, nil
}

func packStep(step types.Step) ([]byte, error) {
	contractABI, err := abiForMethod(step.Method)
	if err != nil {
		return nil, err
	}

	data, err := contractABI.Pack(step.Method, step.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", step.Method, err)
	}

	return data, nil
}
