package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/you/homeauth/internal/config"
	"github.com/you/homeauth/internal/infrastructure/audit"
	"github.com/you/homeauth/internal/infrastructure/auth"
	"github.com/you/homeauth/internal/infrastructure/database"
	"github.com/you/homeauth/internal/infrastructure/repositories"
	"github.com/you/homeauth/internal/logger"
	"github.com/you/homeauth/internal/services"
)

// One-time conversion of plaintext passwords left by the previous schema into bcrypt hashes
func main() {
	dsn := flag.String("dsn", "", "database DSN (defaults to DATABASE_DSN / config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dsn != "" {
		cfg.DSN = *dsn
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev || cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	err = run(cfg, zl)
	_ = zl.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DSN, database.DefaultOptions())
	if err != nil {
		zl.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer func() { _ = database.Close(db) }()

	sqlDB, err := db.DB()
	if err != nil {
		zl.Error("failed to get underlying sql.DB", zap.Error(err))
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		zl.Error("failed to ping database", zap.Error(err))
		return err
	}
	if err := database.AutoMigrate(db, zl); err != nil {
		zl.Error("failed to migrate schema", zap.Error(err))
		return err
	}

	migrator := services.NewPasswordMigrator(
		auth.NewPasswordService(cfg.PasswordHashCost),
		audit.NewZapAuditLogger(zl),
		zl,
		repositories.NewUserRepository(db),
		repositories.NewWorkerRepository(db),
	)

	report, err := migrator.Run(ctx)
	if err != nil {
		zl.Error("password migration aborted",
			zap.Int("migrated", report.Migrated),
			zap.Int("failed", report.Failed),
			zap.Error(err))
		return err
	}
	zl.Info("password migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed))
	if report.Failed > 0 {
		return fmt.Errorf("%d passwords could not be migrated", report.Failed)
	}
	return nil
}
