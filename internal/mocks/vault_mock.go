package mocks

import "github.com/stretchr/testify/mock"

type KeyDecrypterMock struct {
	mock.Mock
}

func (m *KeyDecrypterMock) Decrypt(ciphertext string) ([]byte, error) {
	args := m.Called(ciphertext)

	key, _ := args.Get(0).([]byte)
	return key, args.Error(1)
}
