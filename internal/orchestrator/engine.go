// Package orchestrator drives accepted plans to a terminal outcome: simulate,
// bid, submit, await confirmation, with bounded retry and per-account nonce
// serialization.
package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/mselser95/chainhawk/pkg/wallet"
	"go.uber.org/zap"
)

// State is a phase of the per-plan execution state machine.
type State string

const (
	StateSimulating State = "simulating"
	StateSubmitting State = "submitting"
	StatePending    State = "pending"
)

// Gate can veto submissions; the circuit breaker implements it.
type Gate interface {
	Allow() bool
}

// Config tunes the execution engine.
type Config struct {
	MaxRetries          int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	FeePremiumBPS       uint64
	ConfirmPollInterval time.Duration
	GasLimit            uint64
	ExecutorContract    common.Address
}

// Result is the terminal record of one plan's execution.
type Result struct {
	Plan        *types.ExecutionPlan
	Outcome     types.PlanOutcome
	Reason      string
	Attempts    []*types.Attempt
	Realized    *big.Int
	CompletedAt time.Time
}

// Engine executes plans. Plans run concurrently; submissions sharing the
// funding account are serialized by the nonce manager.
type Engine struct {
	cfg     Config
	client  chain.Client
	account *wallet.Account
	nonces  *NonceManager
	gate    Gate
	logger  *zap.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an engine. gate may be nil.
func New(cfg Config, client chain.Client, account *wallet.Account, gate Gate, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		client:  client,
		account: account,
		nonces:  NewNonceManager(client, account.Address()),
		gate:    gate,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute drives one plan to a terminal outcome. Retry covers pre-submission
// transient failures only; an on-chain revert, a passed deadline, or a failed
// simulation ends the plan immediately.
func (e *Engine) Execute(ctx context.Context, plan *types.ExecutionPlan) *Result {
	res := &Result{Plan: plan, Realized: big.NewInt(0)}

	target, calldata, err := buildCalldata(plan, e.cfg.ExecutorContract)
	if err != nil {
		return e.finish(res, types.PlanAbandoned, "plan encoding: "+err.Error())
	}

	var prevBid *uint256.Int

	for try := 1; try <= e.cfg.MaxRetries; try++ {
		if try > 1 {
			delay := backoffDelay(e.cfg.RetryBaseDelay, e.cfg.RetryMaxDelay, try-1)
			e.logger.Debug("retry-backoff",
				zap.String("plan-id", plan.ID),
				zap.Int("try", try),
				zap.Duration("delay", delay))
			if err := e.sleep(ctx, delay); err != nil {
				return e.finish(res, types.PlanAbandoned, "shutdown")
			}
		}

		height, err := e.client.BlockNumber(ctx)
		if err != nil {
			e.logger.Warn("height-query-failed", zap.String("plan-id", plan.ID), zap.Error(err))
			continue
		}
		if height > plan.DeadlineBlock {
			return e.finish(res, types.PlanExpired, "deadline passed before submission")
		}

		if e.gate != nil && !e.gate.Allow() {
			return e.finish(res, types.PlanAbandoned, "circuit breaker open")
		}

		// Ordering-constrained plans are only worth gas while the subject
		// is still unconfirmed. Best effort: the subject can still land
		// between this check and inclusion.
		if plan.Ordering != types.OrderEither {
			if err := e.checkSubjectLiveness(ctx, plan); err != nil {
				if errors.Is(err, types.ErrSubjectGone) {
					return e.finish(res, types.PlanAbandoned, "subject transaction gone")
				}
				e.logger.Warn("liveness-check-failed", zap.String("plan-id", plan.ID), zap.Error(err))
				continue
			}
		}

		StateTransitionsTotal.WithLabelValues(string(StateSimulating)).Inc()
		_, err = e.client.SimulateCall(ctx, ethereum.CallMsg{
			From: e.account.Address(),
			To:   &target,
			Gas:  e.cfg.GasLimit,
			Data: calldata,
		})
		var revert *types.SimulationRevertError
		if errors.As(err, &revert) {
			// The economics already changed; paying gas now only loses money.
			return e.finish(res, types.PlanAbandoned, "simulation reverted: "+revert.Reason)
		}
		if err != nil {
			e.logger.Warn("simulation-failed", zap.String("plan-id", plan.ID), zap.Error(err))
			continue
		}

		StateTransitionsTotal.WithLabelValues(string(StateSubmitting)).Inc()
		bid, err := e.nextFeeBid(ctx, plan.Kind, prevBid)
		if err != nil {
			e.logger.Warn("fee-bid-failed", zap.String("plan-id", plan.ID), zap.Error(err))
			continue
		}
		prevBid = bid

		attempt := &types.Attempt{
			Number:      len(res.Attempts) + 1,
			SubmittedAt: time.Now(),
			FeeBid:      bid.Clone(),
			Outcome:     types.AttemptPending,
		}

		err = e.nonces.Submit(ctx, func(nonce uint64) error {
			tx := gethtypes.NewTransaction(nonce, target, big.NewInt(0),
				e.cfg.GasLimit, bid.ToBig(), calldata)
			signed, err := e.account.SignTx(tx, e.client.ChainID())
			if err != nil {
				return err
			}
			attempt.TxHash = signed.Hash()
			return e.client.SendTransaction(ctx, signed)
		})
		res.Attempts = append(res.Attempts, attempt)
		AttemptsTotal.WithLabelValues(string(plan.Kind)).Inc()

		if err != nil {
			attempt.Outcome = types.AttemptError
			attempt.Err = err
			if types.IsTransient(err) {
				e.logger.Warn("submission-failed",
					zap.String("plan-id", plan.ID),
					zap.Int("attempt", attempt.Number),
					zap.Error(err))
				continue
			}
			return e.finish(res, types.PlanAbandoned, "submission failed: "+err.Error())
		}

		e.logger.Info("plan-submitted",
			zap.String("plan-id", plan.ID),
			zap.Int("attempt", attempt.Number),
			zap.String("tx", attempt.TxHash.Hex()),
			zap.String("fee-bid", bid.Dec()))

		StateTransitionsTotal.WithLabelValues(string(StatePending)).Inc()
		switch e.awaitConfirmation(ctx, plan, attempt) {
		case types.AttemptConfirmed:
			res.Realized = plan.ExpectedNetProfit().ToBig()
			return e.finish(res, types.PlanConfirmed, "")
		case types.AttemptReverted:
			// The opportunity evaporated; the gas is sunk.
			res.Realized = new(big.Int).Neg(e.gasSpent(attempt))
			return e.finish(res, types.PlanReverted, "reverted on-chain")
		case types.AttemptDropped:
			return e.finish(res, types.PlanExpired, "deadline passed while pending")
		default:
			return e.finish(res, types.PlanAbandoned, "shutdown")
		}
	}

	return e.finish(res, types.PlanRetriesExceeded, "retry budget exhausted")
}

// awaitConfirmation polls for the attempt's receipt until it lands or the
// plan's deadline passes. Receipt-not-found is the normal pending answer.
func (e *Engine) awaitConfirmation(ctx context.Context, plan *types.ExecutionPlan, attempt *types.Attempt) types.AttemptOutcome {
	ticker := time.NewTicker(e.cfg.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return types.AttemptPending
		case <-ticker.C:
		}

		receipt, err := e.client.TransactionReceipt(ctx, attempt.TxHash)
		if err == nil {
			attempt.GasUsed = receipt.GasUsed
			if receipt.Status == gethtypes.ReceiptStatusSuccessful {
				attempt.Outcome = types.AttemptConfirmed
			} else {
				attempt.Outcome = types.AttemptReverted
			}
			return attempt.Outcome
		}

		if !errors.Is(err, ethereum.NotFound) {
			e.logger.Warn("receipt-poll-failed",
				zap.String("plan-id", plan.ID),
				zap.String("tx", attempt.TxHash.Hex()),
				zap.Error(err))
			continue
		}

		height, err := e.client.BlockNumber(ctx)
		if err != nil {
			continue
		}
		if height > plan.DeadlineBlock {
			attempt.Outcome = types.AttemptDropped
			return attempt.Outcome
		}
	}
}

// checkSubjectLiveness verifies the subject transaction is still pending.
func (e *Engine) checkSubjectLiveness(ctx context.Context, plan *types.ExecutionPlan) error {
	if plan.SubjectTx == nil {
		return nil
	}

	_, isPending, err := e.client.TransactionByHash(ctx, *plan.SubjectTx)
	if errors.Is(err, ethereum.NotFound) {
		return types.ErrSubjectGone
	}
	if err != nil {
		return err
	}
	if !isPending {
		return types.ErrSubjectGone
	}
	return nil
}

func (e *Engine) gasSpent(attempt *types.Attempt) *big.Int {
	return new(big.Int).Mul(
		new(big.Int).SetUint64(attempt.GasUsed),
		attempt.FeeBid.ToBig())
}

func (e *Engine) finish(res *Result, outcome types.PlanOutcome, reason string) *Result {
	res.Outcome = outcome
	res.Reason = reason
	res.CompletedAt = time.Now()
	OutcomesTotal.WithLabelValues(string(outcome)).Inc()

	e.logger.Info("plan-finished",
		zap.String("plan-id", res.Plan.ID),
		zap.String("kind", string(res.Plan.Kind)),
		zap.String("outcome", string(outcome)),
		zap.Int("attempts", len(res.Attempts)),
		zap.String("reason", reason))

	return res
}
