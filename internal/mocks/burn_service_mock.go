package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/solpyre/solpyre/internal/dto"
)

type BurnServiceMock struct {
	mock.Mock
}

func (m *BurnServiceMock) ScheduleBurn(ctx context.Context, req *dto.ScheduleBurnDTO) (*dto.BurnResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.BurnResponseDTO)
	return resp, args.Error(1)
}

func (m *BurnServiceMock) GetBurn(ctx context.Context, id string) (*dto.BurnResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.BurnResponseDTO)
	return resp, args.Error(1)
}

func (m *BurnServiceMock) ListBurns(ctx context.Context, status string) ([]dto.BurnResponseDTO, error) {
	args := m.Called(ctx, status)

	resp, _ := args.Get(0).([]dto.BurnResponseDTO)
	return resp, args.Error(1)
}

func (m *BurnServiceMock) RetryBurn(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BurnServiceMock) PauseScheduler(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *BurnServiceMock) ResumeScheduler(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *BurnServiceMock) UpdateConfig(ctx context.Context, req *dto.UpdateConfigDTO) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *BurnServiceMock) SchedulerStatus(ctx context.Context) (*dto.SchedulerStatusDTO, error) {
	args := m.Called(ctx)

	resp, _ := args.Get(0).(*dto.SchedulerStatusDTO)
	return resp, args.Error(1)
}
