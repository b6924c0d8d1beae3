package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/models"
)

type BurnRepoMock struct {
	mock.Mock
}

func (m *BurnRepoMock) FindEligibleBurns(ctx context.Context, now time.Time, maxRetries, limit int) ([]models.ScheduledBurn, error) {
	args := m.Called(ctx, now, maxRetries, limit)

	burns, _ := args.Get(0).([]models.ScheduledBurn)
	return burns, args.Error(1)
}

func (m *BurnRepoMock) TryTransition(ctx context.Context, id string, from, to config.BurnStatus, fields map[string]any) (bool, error) {
	args := m.Called(ctx, id, from, to, fields)
	return args.Bool(0), args.Error(1)
}

func (m *BurnRepoMock) CountInFlightExecutions(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *BurnRepoMock) CreateExecution(ctx context.Context, exec *models.BurnExecution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

func (m *BurnRepoMock) UpdateExecution(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *BurnRepoMock) GetSystemConfig(ctx context.Context) (*models.SystemConfig, error) {
	args := m.Called(ctx)

	cfg, _ := args.Get(0).(*models.SystemConfig)
	return cfg, args.Error(1)
}

func (m *BurnRepoMock) SetSchedulerRunning(ctx context.Context, running bool) error {
	args := m.Called(ctx, running)
	return args.Error(0)
}

func (m *BurnRepoMock) UpdateSystemConfig(ctx context.Context, fields map[string]any) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

func (m *BurnRepoMock) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *BurnRepoMock) CreateBurn(ctx context.Context, b *models.ScheduledBurn) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *BurnRepoMock) GetBurn(ctx context.Context, id string) (*models.ScheduledBurn, error) {
	args := m.Called(ctx, id)

	b, _ := args.Get(0).(*models.ScheduledBurn)
	return b, args.Error(1)
}

func (m *BurnRepoMock) ListBurns(ctx context.Context, status config.BurnStatus, limit int) ([]models.ScheduledBurn, error) {
	args := m.Called(ctx, status, limit)

	burns, _ := args.Get(0).([]models.ScheduledBurn)
	return burns, args.Error(1)
}

func (m *BurnRepoMock) CountBurnsByStatus(ctx context.Context) (map[config.BurnStatus]int64, error) {
	args := m.Called(ctx)

	counts, _ := args.Get(0).(map[config.BurnStatus]int64)
	return counts, args.Error(1)
}

func (m *BurnRepoMock) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)

	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}
