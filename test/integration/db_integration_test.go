package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/models"
	"github.com/solpyre/solpyre/internal/storage/postgres"
)

var (
	testDB   *sql.DB
	testPort string
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	pool.MaxWait = 60 * time.Second

	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=testuser",
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_DB=solpyre_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %s", err)
	}

	testPort = pg.GetPort("5432/tcp")
	dsn := fmt.Sprintf(
		"host=localhost user=testuser password=testpass dbname=solpyre_test port=%s sslmode=disable TimeZone=UTC",
		testPort,
	)

	if err := pool.Retry(func() error {
		var err error
		testDB, err = sql.Open("postgres", dsn)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := testDB.PingContext(ctx); err != nil {
			testDB.Close()
			return err
		}

		if err := runMigrations(testDB); err != nil {
			log.Printf("Failed to run migrations: %v", err)
			testDB.Close()
			return err
		}
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %s", err)
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}

	if err := pool.Purge(pg); err != nil {
		log.Fatalf("Could not purge postgres container: %s", err)
	}

	os.Exit(code)
}

func runMigrations(db *sql.DB) error {
	_, filename, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(filename), "../..", "migrations")

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", migrationsDir)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

// setupTestDB returns a fresh connection with the burn tables emptied.
// Each test gets its own connection to avoid connection pool issues.
func setupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &postgres.Config{
		User:       "testuser",
		Password:   "testpass",
		Host:       "localhost",
		Port:       testPort,
		Database:   "solpyre_test",
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		LogLevel:   logger.Silent,
	}

	db, err := postgres.ConnectDB(cfg, zerolog.Nop())
	require.NoError(tb, err)

	for _, table := range []string{"notifications", "burn_executions", "scheduled_burns", "transactions"} {
		require.NoError(tb, db.Exec("DELETE FROM "+table).Error)
	}
	require.NoError(tb, db.Exec(
		"UPDATE system_configs SET max_workers = 3, max_retries = 3, retry_delay_seconds = 300, is_running = true WHERE id = 1",
	).Error)

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB) *models.Transaction {
	t.Helper()

	tx := models.Transaction{
		TokenMint:     "So11111111111111111111111111111111111111112",
		TokenSymbol:   "PYRE",
		TokenDecimals: 9,
		WalletPubkey:  "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		WalletKeyEnc:  "ciphertext",
	}
	require.NoError(t, db.Create(&tx).Error)
	return &tx
}

func TestConnectDB_BadCredentials(t *testing.T) {
	cfg := &postgres.Config{
		User:       "testuser",
		Password:   "wrongpass",
		Host:       "localhost",
		Port:       testPort,
		Database:   "solpyre_test",
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		LogLevel:   logger.Silent,
	}

	db, err := postgres.ConnectDB(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection failed after 2 attempts")
	assert.Nil(t, db)
}

func TestMigrations_SeedSystemConfig(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewBurnRepository(db)

	cfg, err := repo.GetSystemConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SystemConfigID, cfg.ID)
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 300, cfg.RetryDelaySeconds)
	assert.True(t, cfg.IsRunning)
}

func TestBurnRepository_ConcurrentClaim_SingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewBurnRepository(db)
	ctx := context.Background()
	tx := seedTransaction(t, db)

	b := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  time.Now().Add(-time.Minute),
		Amount:        decimal.RequireFromString("1"),
		Status:        config.BurnStatusPending,
	}
	require.NoError(t, repo.CreateBurn(ctx, &b))

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryTransition(ctx, b.ID, config.BurnStatusPending, config.BurnStatusProcessing, nil)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for ok := range wins {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent claim must win")

	got, err := repo.GetBurn(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, config.BurnStatusProcessing, got.Status)
}

func TestBurnRepository_EligibilityAgainstPostgres(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewBurnRepository(db)
	ctx := context.Background()
	tx := seedTransaction(t, db)
	now := time.Now()

	due := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  now.Add(-time.Minute),
		Amount:        decimal.RequireFromString("2"),
		Status:        config.BurnStatusPending,
	}
	require.NoError(t, repo.CreateBurn(ctx, &due))

	backoff := now.Add(time.Hour)
	waiting := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  now.Add(-time.Minute),
		Amount:        decimal.RequireFromString("3"),
		Status:        config.BurnStatusRetrying,
		RetryCount:    1,
		NextRetryAt:   &backoff,
	}
	require.NoError(t, repo.CreateBurn(ctx, &waiting))

	burns, err := repo.FindEligibleBurns(ctx, now, 3, 10)
	require.NoError(t, err)
	require.Len(t, burns, 1)
	assert.Equal(t, due.ID, burns[0].ID)
	require.NotNil(t, burns[0].Transaction)
	assert.Equal(t, tx.TokenMint, burns[0].Transaction.TokenMint)
}

func TestBurnRepository_InFlightCountAgainstPostgres(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewBurnRepository(db)
	ctx := context.Background()
	tx := seedTransaction(t, db)

	fresh := models.BurnExecution{TransactionID: tx.ID, Status: config.ExecutionStatusStarted, StartedAt: time.Now().Add(-time.Minute)}
	stale := models.BurnExecution{TransactionID: tx.ID, Status: config.ExecutionStatusStarted, StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.CreateExecution(ctx, &fresh))
	require.NoError(t, repo.CreateExecution(ctx, &stale))

	count, err := repo.CountInFlightExecutions(ctx, time.Now().Add(-config.InFlightWindow))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBurnRepository_NumericPrecisionAgainstPostgres(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewBurnRepository(db)
	ctx := context.Background()
	tx := seedTransaction(t, db)

	amount := decimal.RequireFromString("99999999999999999999999999999.123456789")
	b := models.ScheduledBurn{
		TransactionID: tx.ID,
		ScheduledFor:  time.Now(),
		Amount:        amount,
		Status:        config.BurnStatusPending,
	}
	require.NoError(t, repo.CreateBurn(ctx, &b))

	got, err := repo.GetBurn(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, amount.Equal(got.Amount), "numeric(38,9) column must hold the full amount, got %s", got.Amount)
}
