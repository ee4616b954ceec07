package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/api/routes"
	"magnova-scm-api-server/internal/app"
	"magnova-scm-api-server/internal/database"
	"magnova-scm-api-server/internal/s3"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/store"
	"magnova-scm-api-server/internal/store/memstore"
	"magnova-scm-api-server/internal/store/mongostore"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const startupTimeout = 30 * time.Second

// openStore returns the configured store and a close func.
// The mongo store is migrated, then indexed, before use.
func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	ms, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	closeFn := func() {
		if err := ms.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to close mongo connection")
		}
	}
	if err := ms.Migrate(ctx, logger); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if err := ms.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return ms, closeFn, nil
}

func runServe(cmd *cobra.Command) error {
	// 1. Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	// 2. Open the store
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Make sure the first Admin exists
	if cfg.Seed.AdminPassword != "" {
		if _, err := database.SeedAdmin(ctx, st, cfg.Seed, logger); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	// 4. Optional infrastructure
	var extras app.Extras
	if cfg.Redis.Addr != "" {
		locker, rdb, err := sequence.NewRedisLocker(ctx, cfg.Redis, cfg.Sequence.LockTTL, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		extras.Locker = locker
	}
	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("create s3 uploader: %w", err)
		}
		extras.Archiver = uploader
	}

	// 5. Build the services and the router
	router := routes.SetupRouter(app.New(cfg, st, logger, extras))

	// 6. Start server
	logger.WithField("port", cfg.Server.Port).Info("starting API server")
	return router.Run(":" + cfg.Server.Port)
}

func runMigrate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == "memory" {
		return errors.New("migrate needs the mongo store driver")
	}
	logger := config.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	_, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	closeStore()
	logger.Info("migrations applied")
	return nil
}

func runSeedAdmin(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := database.SeedAdmin(ctx, st, cfg.Seed, logger)
	if err != nil {
		return err
	}
	if !created {
		logger.WithField("email", cfg.Seed.AdminEmail).Info("admin already exists")
	}
	return nil
}
