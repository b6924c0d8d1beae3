package burn

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solpyre/solpyre/common"
	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/dto"
	"github.com/solpyre/solpyre/internal/models"
)

// listLimit caps admin list responses.
const listLimit = 200

type BurnService struct {
	repo BurnRepoInterface
}

func NewBurnService(repo BurnRepoInterface) *BurnService {
	return &BurnService{repo: repo}
}

var _ BurnServiceInterface = (*BurnService)(nil)

// ScheduleBurn validates input, resolves the parent transaction, and
// persists a pending burn. The scheduler picks it up once due.
func (s *BurnService) ScheduleBurn(ctx context.Context, req *dto.ScheduleBurnDTO) (*dto.BurnResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid amount", map[string]any{
			"provided": req.Amount,
		})
	}
	if amount.Sign() <= 0 {
		return nil, common.Errf(http.StatusBadRequest, "amount must be positive")
	}

	tx, err := s.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "transaction not found")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to load transaction")
	}

	b := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  req.ScheduledFor,
		Amount:        amount,
		Status:        config.BurnStatusPending,
	}
	if err := s.repo.CreateBurn(ctx, &b); err != nil {
		return nil, mapStoreError(err, "failed to schedule burn")
	}

	b.Transaction = tx
	resp := toBurnResponse(&b)
	return &resp, nil
}

func (s *BurnService) GetBurn(ctx context.Context, id string) (*dto.BurnResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	b, err := s.repo.GetBurn(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "burn not found")
		}
		return nil, mapStoreError(err, "failed to get burn")
	}

	resp := toBurnResponse(b)
	return &resp, nil
}

func (s *BurnService) ListBurns(ctx context.Context, status string) ([]dto.BurnResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	var filter config.BurnStatus
	if status != "" {
		filter = config.BurnStatus(strings.ToLower(status))
		if !validBurnStatus(filter) {
			return nil, common.NewAPIError(http.StatusBadRequest, "invalid status", map[string]any{
				"provided": status,
				"allowed":  config.AllBurnStatuses,
			})
		}
	}

	burns, err := s.repo.ListBurns(ctx, filter, listLimit)
	if err != nil {
		return nil, mapStoreError(err, "failed to list burns")
	}

	resps := make([]dto.BurnResponseDTO, len(burns))
	for i := range burns {
		resps[i] = toBurnResponse(&burns[i])
	}
	return resps, nil
}

// RetryBurn re-arms a terminally failed burn: back to pending with the
// retry budget, backoff marker, and error cleared. Conditional on the burn
// still being failed, so a concurrent retry is a conflict, not a double
// reset.
func (s *BurnService) RetryBurn(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if _, err := s.repo.GetBurn(ctx, id); err != nil {
		if isNotFound(err) {
			return common.Errf(http.StatusNotFound, "burn not found")
		}
		return mapStoreError(err, "failed to load burn")
	}

	ok, err := s.repo.TryTransition(ctx, id, config.BurnStatusFailed, config.BurnStatusPending, map[string]any{
		"retry_count":   0,
		"next_retry_at": nil,
		"error_message": "",
	})
	if err != nil {
		return mapStoreError(err, "failed to retry burn")
	}
	if !ok {
		return common.Errf(http.StatusConflict, "burn is not in failed status")
	}
	return nil
}

func (s *BurnService) PauseScheduler(ctx context.Context) error {
	if err := s.repo.SetSchedulerRunning(ctx, false); err != nil {
		return mapStoreError(err, "failed to pause scheduler")
	}
	return nil
}

func (s *BurnService) ResumeScheduler(ctx context.Context) error {
	if err := s.repo.SetSchedulerRunning(ctx, true); err != nil {
		return mapStoreError(err, "failed to resume scheduler")
	}
	return nil
}

func (s *BurnService) UpdateConfig(ctx context.Context, req *dto.UpdateConfigDTO) error {
	fields := map[string]any{}
	if req.MaxWorkers != nil {
		fields["max_workers"] = *req.MaxWorkers
	}
	if req.MaxRetries != nil {
		fields["max_retries"] = *req.MaxRetries
	}
	if req.RetryDelaySeconds != nil {
		fields["retry_delay_seconds"] = *req.RetryDelaySeconds
	}
	if len(fields) == 0 {
		return common.Errf(http.StatusBadRequest, "no config fields provided")
	}

	if err := s.repo.UpdateSystemConfig(ctx, fields); err != nil {
		return mapStoreError(err, "failed to update config")
	}
	return nil
}

func (s *BurnService) SchedulerStatus(ctx context.Context) (*dto.SchedulerStatusDTO, error) {
	cfg, err := s.repo.GetSystemConfig(ctx)
	if err != nil {
		return nil, mapStoreError(err, "failed to load config")
	}

	counts, err := s.repo.CountBurnsByStatus(ctx)
	if err != nil {
		return nil, mapStoreError(err, "failed to count burns")
	}

	inFlight, err := s.repo.CountInFlightExecutions(ctx, time.Now().Add(-config.InFlightWindow))
	if err != nil {
		return nil, mapStoreError(err, "failed to count in-flight executions")
	}

	burnCounts := make(map[string]int64, len(counts))
	for status, n := range counts {
		burnCounts[string(status)] = n
	}

	return &dto.SchedulerStatusDTO{
		IsRunning:         cfg.IsRunning,
		MaxWorkers:        cfg.MaxWorkers,
		MaxRetries:        cfg.MaxRetries,
		RetryDelaySeconds: cfg.RetryDelaySeconds,
		InFlight:          inFlight,
		BurnCounts:        burnCounts,
	}, nil
}

func toBurnResponse(b *models.ScheduledBurn) dto.BurnResponseDTO {
	resp := dto.BurnResponseDTO{
		ID:            b.ID,
		TransactionID: b.TransactionID,
		Amount:        b.Amount.String(),
		ScheduledFor:  b.ScheduledFor,
		Status:        string(b.Status),
		RetryCount:    b.RetryCount,
		NextRetryAt:   b.NextRetryAt,
		ExecutedAt:    b.ExecutedAt,
		ErrorMessage:  b.ErrorMessage,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Transaction != nil {
		resp.TokenMint = b.Transaction.TokenMint
		resp.TokenSymbol = b.Transaction.TokenSymbol
	}
	return resp
}

func validBurnStatus(s config.BurnStatus) bool {
	for _, known := range config.AllBurnStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		strings.Contains(err.Error(), "not found")
}

func mapStoreError(err error, fallback string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return common.Errf(http.StatusRequestTimeout, "request timeout")
	default:
		return common.Errf(http.StatusInternalServerError, "%s", fallback)
	}
}
