package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/solpyre/solpyre/internal/burn"
	"github.com/solpyre/solpyre/internal/chain"
	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/models"
	"github.com/solpyre/solpyre/internal/notify"
)

// KeyDecrypter is the vault capability the executor needs.
type KeyDecrypter interface {
	Decrypt(ciphertext string) ([]byte, error)
}

// Executor runs one burn attempt end to end: claim, decrypt, submit,
// confirm, terminal bookkeeping. Whatever happens between the claim and
// the terminal write, the burn never stays in processing — the failure
// path runs for every error, including panics in the burn body.
type Executor struct {
	repo           burn.BurnRepoInterface
	vault          KeyDecrypter
	chain          chain.Client
	notifier       *notify.Notifier
	log            zerolog.Logger
	confirmTimeout time.Duration
}

func NewExecutor(repo burn.BurnRepoInterface, vault KeyDecrypter, chainClient chain.Client, notifier *notify.Notifier, confirmTimeout time.Duration, log zerolog.Logger) *Executor {
	if confirmTimeout <= 0 {
		confirmTimeout = config.DefaultConfirmTimeout
	}
	return &Executor{
		repo:           repo,
		vault:          vault,
		chain:          chainClient,
		notifier:       notifier,
		log:            log.With().Str("component", "executor").Logger(),
		confirmTimeout: confirmTimeout,
	}
}

// Execute processes a single eligible burn under the given tick config.
// The caller guarantees it is not invoked twice concurrently for the same
// burn within one process; the conditional claim guards across processes.
func (e *Executor) Execute(ctx context.Context, b *models.ScheduledBurn, cfg *models.SystemConfig) {
	log := e.log.With().Str("burn_id", b.ID).Logger()

	exec := &models.BurnExecution{
		ScheduledBurnID: &b.ID,
		TransactionID:   b.TransactionID,
		Status:          config.ExecutionStatusStarted,
		StartedAt:       time.Now(),
	}
	if err := e.repo.CreateExecution(ctx, exec); err != nil {
		log.Error().Err(err).Msg("failed to create execution attempt")
		return
	}

	claimed, err := e.repo.TryTransition(ctx, b.ID, b.Status, config.BurnStatusProcessing, nil)
	if err != nil {
		log.Error().Err(err).Msg("claim transition failed")
		e.finishExecution(ctx, exec.ID, config.ExecutionStatusFailed, err.Error())
		return
	}
	if !claimed {
		// Another scheduler got there first. Not an error.
		log.Debug().Msg("burn already claimed elsewhere")
		e.finishExecution(ctx, exec.ID, config.ExecutionStatusFailed, "burn already claimed by another process")
		return
	}

	var (
		signature string
		fee       decimal.Decimal
	)
	runErr := e.runBurn(ctx, b, exec.ID, &signature, &fee)

	if runErr == nil {
		e.recordSuccess(ctx, b, exec.ID, signature, fee, log)
	} else {
		e.recordFailure(ctx, b, exec.ID, cfg, runErr, log)
	}
}

// runBurn holds the fallible body of an attempt. A panic anywhere inside
// is converted to an error so the caller's bookkeeping always runs.
func (e *Executor) runBurn(ctx context.Context, b *models.ScheduledBurn, execID string, signature *string, fee *decimal.Decimal) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during burn execution: %v", p)
		}
	}()

	tx := b.Transaction
	if tx == nil {
		return fmt.Errorf("burn %s has no parent transaction loaded", b.ID)
	}

	key, err := e.vault.Decrypt(tx.WalletKeyEnc)
	if err != nil {
		return fmt.Errorf("decrypt burn wallet key: %w", err)
	}

	sig, err := e.chain.SubmitBurn(ctx, chain.BurnRequest{
		PrivateKey: key,
		Mint:       tx.TokenMint,
		Amount:     b.Amount,
		Decimals:   tx.TokenDecimals,
	})
	if err != nil {
		return fmt.Errorf("submit burn: %w", err)
	}
	*signature = sig

	// Record the signature as soon as it exists: even if confirmation
	// times out, operators can find the transaction.
	if uerr := e.repo.UpdateExecution(ctx, execID, map[string]any{"tx_signature": sig}); uerr != nil {
		e.log.Warn().Err(uerr).Str("signature", sig).Msg("failed to record tx signature")
	}

	confirmCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	res, err := e.chain.Confirm(confirmCtx, sig)
	if err != nil {
		return fmt.Errorf("confirm burn %s: %w", sig, err)
	}
	*fee = res.Fee
	return nil
}

func (e *Executor) recordSuccess(ctx context.Context, b *models.ScheduledBurn, execID, signature string, fee decimal.Decimal, log zerolog.Logger) {
	now := time.Now()

	if err := e.repo.UpdateExecution(ctx, execID, map[string]any{
		"status":       config.ExecutionStatusCompleted,
		"completed_at": now,
		"gas_used":     fee,
	}); err != nil {
		log.Error().Err(err).Msg("failed to complete execution record")
	}

	ok, err := e.repo.TryTransition(ctx, b.ID, config.BurnStatusProcessing, config.BurnStatusConfirmed, map[string]any{
		"executed_at":   now,
		"error_message": "",
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to confirm burn")
	} else if !ok {
		log.Warn().Msg("burn left processing before confirmation bookkeeping")
	}

	e.notifier.BurnCompleted(ctx, b, execID, signature, fee)
	log.Info().
		Str("signature", signature).
		Str("amount", b.Amount.String()).
		Str("fee_sol", fee.String()).
		Msg("burn confirmed")
}

func (e *Executor) recordFailure(ctx context.Context, b *models.ScheduledBurn, execID string, cfg *models.SystemConfig, cause error, log zerolog.Logger) {
	now := time.Now()
	msg := cause.Error()

	e.finishExecution(ctx, execID, config.ExecutionStatusFailed, msg)

	terminal := b.RetryCount+1 >= cfg.MaxRetries
	if terminal {
		ok, err := e.repo.TryTransition(ctx, b.ID, config.BurnStatusProcessing, config.BurnStatusFailed, map[string]any{
			"retry_count":   b.RetryCount + 1,
			"error_message": msg,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to mark burn failed")
		} else if !ok {
			log.Warn().Msg("burn left processing before failure bookkeeping")
		}
		log.Error().
			Err(cause).
			Int("retry_count", b.RetryCount+1).
			Msg("burn failed permanently, retries exhausted")
	} else {
		nextRetry := now.Add(cfg.RetryDelay())
		ok, err := e.repo.TryTransition(ctx, b.ID, config.BurnStatusProcessing, config.BurnStatusRetrying, map[string]any{
			"retry_count":   b.RetryCount + 1,
			"next_retry_at": nextRetry,
			"error_message": msg,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to schedule burn retry")
		} else if !ok {
			log.Warn().Msg("burn left processing before retry bookkeeping")
		}
		log.Warn().
			Err(cause).
			Int("retry_count", b.RetryCount+1).
			Time("next_retry_at", nextRetry).
			Msg("burn attempt failed, retry scheduled")
	}

	e.notifier.BurnFailed(ctx, b, execID, msg, terminal)
}

func (e *Executor) finishExecution(ctx context.Context, execID string, status config.ExecutionStatus, msg string) {
	if err := e.repo.UpdateExecution(ctx, execID, map[string]any{
		"status":        status,
		"completed_at":  time.Now(),
		"error_message": msg,
	}); err != nil {
		e.log.Error().Err(err).Str("execution_id", execID).Msg("failed to finish execution record")
	}
}
