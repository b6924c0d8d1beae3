package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/solpyre/solpyre/internal/chain"
	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/mocks"
	"github.com/solpyre/solpyre/internal/models"
	"github.com/solpyre/solpyre/internal/notify"
	"github.com/solpyre/solpyre/internal/storage/postgres"
	"github.com/solpyre/solpyre/internal/vault"
)

func setupExecutorDB(t *testing.T) (*gorm.DB, *postgres.BurnRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Transaction{},
		&models.ScheduledBurn{},
		&models.BurnExecution{},
		&models.SystemConfig{},
		&models.Notification{},
	)
	require.NoError(t, err)

	return db, postgres.NewBurnRepository(db)
}

func seedBurn(t *testing.T, db *gorm.DB, status config.BurnStatus, retryCount int) *models.ScheduledBurn {
	t.Helper()

	tx := models.Transaction{
		TokenMint:     "So11111111111111111111111111111111111111112",
		TokenSymbol:   "TEST",
		TokenDecimals: 9,
		WalletPubkey:  "wallet-pubkey",
		WalletKeyEnc:  "ciphertext",
	}
	require.NoError(t, db.Create(&tx).Error)

	b := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  time.Now().Add(-time.Second),
		Amount:        decimal.RequireFromString("123.456"),
		Status:        status,
		RetryCount:    retryCount,
	}
	require.NoError(t, db.Create(&b).Error)
	b.Transaction = &tx
	return &b
}

func testSystemConfig() *models.SystemConfig {
	return &models.SystemConfig{
		ID:                models.SystemConfigID,
		MaxWorkers:        3,
		MaxRetries:        3,
		RetryDelaySeconds: 300,
		IsRunning:         true,
	}
}

func newTestExecutor(repo *postgres.BurnRepository, v KeyDecrypter, c chain.Client) *Executor {
	log := zerolog.Nop()
	return NewExecutor(repo, v, c, notify.New(repo, log), time.Second, log)
}

func TestExecutor_FailureSchedulesRetry(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusPending, 0)

	decrypter := new(mocks.KeyDecrypterMock)
	decrypter.On("Decrypt", "ciphertext").Return([]byte("key-material"), nil)

	chainClient := new(mocks.ChainClientMock)
	chainClient.On("SubmitBurn", mock.Anything, mock.Anything).
		Return("", errors.New("rpc node unreachable"))

	exec := newTestExecutor(repo, decrypter, chainClient)
	before := time.Now()
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, config.BurnStatusRetrying, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.NextRetryAt)
	expectedRetry := before.Add(300 * time.Second)
	assert.WithinDuration(t, expectedRetry, *got.NextRetryAt, 5*time.Second)
	assert.Contains(t, got.ErrorMessage, "rpc node unreachable")

	var attempt models.BurnExecution
	require.NoError(t, db.First(&attempt, "scheduled_burn_id = ?", b.ID).Error)
	assert.Equal(t, config.ExecutionStatusFailed, attempt.Status)
	assert.NotNil(t, attempt.CompletedAt)
	assert.Contains(t, attempt.ErrorMessage, "rpc node unreachable")

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, config.NotificationBurnFailed, notifications[0].Type)
}

func TestExecutor_RetriesExhaustedFailsPermanently(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusRetrying, 2)

	decrypter := new(mocks.KeyDecrypterMock)
	decrypter.On("Decrypt", "ciphertext").Return([]byte("key-material"), nil)

	chainClient := new(mocks.ChainClientMock)
	chainClient.On("SubmitBurn", mock.Anything, mock.Anything).
		Return("", errors.New("still down"))

	exec := newTestExecutor(repo, decrypter, chainClient)
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, config.BurnStatusFailed, got.Status)
	assert.Equal(t, 3, got.RetryCount)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, config.NotificationBurnFailed, notifications[0].Type)
	assert.Contains(t, string(notifications[0].Payload), `"terminal":true`)
}

func TestExecutor_SuccessConfirmsBurn(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusPending, 0)

	decrypter := new(mocks.KeyDecrypterMock)
	decrypter.On("Decrypt", "ciphertext").Return([]byte("key-material"), nil)

	fee := decimal.RequireFromString("0.000005")
	chainClient := new(mocks.ChainClientMock)
	chainClient.On("SubmitBurn", mock.Anything, mock.Anything).Return("5ig", nil)
	chainClient.On("Confirm", mock.Anything, "5ig").
		Return(chain.ConfirmResult{Fee: fee, Slot: 42}, nil)

	exec := newTestExecutor(repo, decrypter, chainClient)
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, config.BurnStatusConfirmed, got.Status)
	require.NotNil(t, got.ExecutedAt)
	assert.Equal(t, 0, got.RetryCount)

	var attempt models.BurnExecution
	require.NoError(t, db.First(&attempt, "scheduled_burn_id = ?", b.ID).Error)
	assert.Equal(t, config.ExecutionStatusCompleted, attempt.Status)
	require.NotNil(t, attempt.TxSignature)
	assert.Equal(t, "5ig", *attempt.TxSignature)
	require.True(t, attempt.GasUsed.Valid)
	assert.True(t, fee.Equal(attempt.GasUsed.Decimal))
	require.NotNil(t, attempt.CompletedAt)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, config.NotificationBurnCompleted, notifications[0].Type)
}

func TestExecutor_DecryptionFailureTakesFailurePath(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusPending, 0)

	decrypter := new(mocks.KeyDecrypterMock)
	decrypter.On("Decrypt", "ciphertext").Return(nil, vault.ErrDecryption)

	chainClient := new(mocks.ChainClientMock)

	exec := newTestExecutor(repo, decrypter, chainClient)
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, config.BurnStatusRetrying, got.Status)
	assert.Contains(t, got.ErrorMessage, "decrypt burn wallet key")

	// The chain must never be touched when the key cannot be recovered.
	chainClient.AssertNotCalled(t, "SubmitBurn", mock.Anything, mock.Anything)
}

func TestExecutor_AlreadyClaimedIsNoOp(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusPending, 0)

	// Another process claims the burn after selection but before our claim.
	require.NoError(t, db.Model(&models.ScheduledBurn{}).
		Where("id = ?", b.ID).
		Update("status", config.BurnStatusProcessing).Error)

	decrypter := new(mocks.KeyDecrypterMock)
	chainClient := new(mocks.ChainClientMock)

	exec := newTestExecutor(repo, decrypter, chainClient)
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, config.BurnStatusProcessing, got.Status)
	assert.Equal(t, 0, got.RetryCount)

	decrypter.AssertNotCalled(t, "Decrypt", mock.Anything)
	chainClient.AssertNotCalled(t, "SubmitBurn", mock.Anything, mock.Anything)

	var attempt models.BurnExecution
	require.NoError(t, db.First(&attempt, "scheduled_burn_id = ?", b.ID).Error)
	assert.Equal(t, config.ExecutionStatusFailed, attempt.Status)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	assert.Empty(t, notifications)
}

func TestExecutor_NoBurnLeftProcessing(t *testing.T) {
	db, repo := setupExecutorDB(t)
	b := seedBurn(t, db, config.BurnStatusPending, 0)

	decrypter := new(mocks.KeyDecrypterMock)
	decrypter.On("Decrypt", "ciphertext").Run(func(args mock.Arguments) {
		panic("vault blew up")
	}).Return(nil, nil)

	chainClient := new(mocks.ChainClientMock)

	exec := newTestExecutor(repo, decrypter, chainClient)
	exec.Execute(context.Background(), b, testSystemConfig())

	var got models.ScheduledBurn
	require.NoError(t, db.First(&got, "id = ?", b.ID).Error)
	assert.NotEqual(t, config.BurnStatusProcessing, got.Status)
	assert.Equal(t, config.BurnStatusRetrying, got.Status)
	assert.Contains(t, got.ErrorMessage, "panic during burn execution")
}
