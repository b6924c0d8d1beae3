package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/solpyre/solpyre/internal/burn"
	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/models"
)

type BurnRepository struct {
	db *gorm.DB
}

func NewBurnRepository(db *gorm.DB) *BurnRepository {
	return &BurnRepository{db: db}
}

var _ burn.BurnRepoInterface = (*BurnRepository)(nil)

// FindEligibleBurns selects due burns: eligible status, scheduled time
// passed, retry backoff elapsed (or never set), retry count under the
// ceiling. Ordered earliest-due first, id breaking ties for determinism.
func (r *BurnRepository) FindEligibleBurns(ctx context.Context, now time.Time, maxRetries, limit int) ([]models.ScheduledBurn, error) {
	var burns []models.ScheduledBurn
	err := r.db.WithContext(ctx).
		Preload("Transaction").
		Where("status IN ?", config.EligibleBurnStatuses).
		Where("scheduled_for <= ?", now).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Where("retry_count < ?", maxRetries).
		Order("scheduled_for ASC, id ASC").
		Limit(limit).
		Find(&burns).Error
	if err != nil {
		return nil, fmt.Errorf("find eligible burns: %w", err)
	}
	return burns, nil
}

// TryTransition performs the conditional status update that arbitrates job
// ownership: the WHERE clause matches the expected prior status, so two
// racing schedulers get exactly one winner. RowsAffected tells them apart.
func (r *BurnRepository) TryTransition(ctx context.Context, id string, from, to config.BurnStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&models.ScheduledBurn{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition burn %s %s->%s: %w", id, from, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CountInFlightExecutions counts started executions newer than since.
// The durable count, not an in-process counter, is the admission truth:
// the process may be one of several schedulers or may have restarted.
func (r *BurnRepository) CountInFlightExecutions(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BurnExecution{}).
		Where("status = ? AND started_at >= ?", config.ExecutionStatusStarted, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count in-flight executions: %w", err)
	}
	return count, nil
}

func (r *BurnRepository) CreateExecution(ctx context.Context, exec *models.BurnExecution) error {
	if err := r.db.WithContext(ctx).Create(exec).Error; err != nil {
		return fmt.Errorf("create execution: %w", err)
	}
	return nil
}

func (r *BurnRepository) UpdateExecution(ctx context.Context, id string, fields map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&models.BurnExecution{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("update execution %s: %w", id, err)
	}
	return nil
}

// GetSystemConfig reads the singleton config row, seeding defaults on
// first access so a fresh database has a working scheduler.
func (r *BurnRepository) GetSystemConfig(ctx context.Context) (*models.SystemConfig, error) {
	cfg := models.SystemConfig{
		ID:                models.SystemConfigID,
		MaxWorkers:        3,
		MaxRetries:        3,
		RetryDelaySeconds: 300,
		IsRunning:         true,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Where("id = ?", models.SystemConfigID).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return nil, fmt.Errorf("get system config: %w", err)
	}
	return &cfg, nil
}

func (r *BurnRepository) SetSchedulerRunning(ctx context.Context, running bool) error {
	return r.UpdateSystemConfig(ctx, map[string]any{"is_running": running})
}

func (r *BurnRepository) UpdateSystemConfig(ctx context.Context, fields map[string]any) error {
	if _, err := r.GetSystemConfig(ctx); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&models.SystemConfig{}).
		Where("id = ?", models.SystemConfigID).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("update system config: %w", err)
	}
	return nil
}

func (r *BurnRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *BurnRepository) CreateBurn(ctx context.Context, b *models.ScheduledBurn) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create burn: %w", err)
	}
	return nil
}

func (r *BurnRepository) GetBurn(ctx context.Context, id string) (*models.ScheduledBurn, error) {
	var b models.ScheduledBurn
	err := r.db.WithContext(ctx).Preload("Transaction").First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("burn not found: %w", err)
		}
		return nil, fmt.Errorf("get burn: %w", err)
	}
	return &b, nil
}

func (r *BurnRepository) ListBurns(ctx context.Context, status config.BurnStatus, limit int) ([]models.ScheduledBurn, error) {
	q := r.db.WithContext(ctx).Model(&models.ScheduledBurn{}).
		Order("scheduled_for DESC").
		Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var burns []models.ScheduledBurn
	if err := q.Find(&burns).Error; err != nil {
		return nil, fmt.Errorf("list burns: %w", err)
	}
	return burns, nil
}

func (r *BurnRepository) CountBurnsByStatus(ctx context.Context) (map[config.BurnStatus]int64, error) {
	type row struct {
		Status config.BurnStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.ScheduledBurn{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count burns by status: %w", err)
	}

	counts := make(map[config.BurnStatus]int64, len(config.AllBurnStatuses))
	for _, s := range config.AllBurnStatuses {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (r *BurnRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction not found: %w", err)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &tx, nil
}
