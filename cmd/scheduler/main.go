package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/solpyre/solpyre/internal/chain"
	"github.com/solpyre/solpyre/internal/notify"
	"github.com/solpyre/solpyre/internal/scheduler"
	"github.com/solpyre/solpyre/internal/storage/postgres"
	"github.com/solpyre/solpyre/internal/vault"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx := context.Background()

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load database config")
	}

	schedCfg, err := scheduler.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scheduler config")
	}

	// The master key is validated before anything else touches the
	// network: a bad key is a startup error, not a retry condition.
	keyVault, err := vault.New(schedCfg.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid master key")
	}

	db, err := postgres.ConnectDB(dbCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	repo := postgres.NewBurnRepository(db)
	notifier := notify.New(repo, log)
	chainClient := chain.NewRPCClient(schedCfg.RPCURL, log)
	executor := scheduler.NewExecutor(repo, keyVault, chainClient, notifier, schedCfg.ConfirmTimeout, log)

	sched := scheduler.New(repo, executor, schedCfg, log)
	sched.Start()
	log.Info().Str("rpc_url", schedCfg.RPCURL).Msg("burn scheduler active")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down, waiting for in-flight burns")
	sched.Stop()
	log.Info().Msg("shutdown complete")
}
