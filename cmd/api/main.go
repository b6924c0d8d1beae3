package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/solpyre/solpyre/internal/burn"
	"github.com/solpyre/solpyre/internal/models"
	"github.com/solpyre/solpyre/internal/storage/postgres"
	"github.com/solpyre/solpyre/middleware"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := postgres.LoadConfigFromEnv(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load database config")
	}

	db, err := postgres.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	if err := postgres.MigrateModels(db,
		&models.Transaction{},
		&models.ScheduledBurn{},
		&models.BurnExecution{},
		&models.SystemConfig{},
		&models.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	repo := postgres.NewBurnRepository(db)
	service := burn.NewBurnService(repo)
	handler := burn.NewBurnHandler(service)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.ErrorHandler())
	handler.RegisterRoutes(router)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	log.Info().Str("addr", addr).Msg("admin api listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
