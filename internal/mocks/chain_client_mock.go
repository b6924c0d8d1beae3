package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/solpyre/solpyre/internal/chain"
)

type ChainClientMock struct {
	mock.Mock
}

func (m *ChainClientMock) SubmitBurn(ctx context.Context, req chain.BurnRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *ChainClientMock) Confirm(ctx context.Context, signature string) (chain.ConfirmResult, error) {
	args := m.Called(ctx, signature)

	res, _ := args.Get(0).(chain.ConfirmResult)
	return res, args.Error(1)
}
