package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/types"
)

// PostgresService owns the gorm handle for the relational store drivers
// (postgres in deployments, sqlite for local runs).
type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

func NewPostgresService(log *logger.Logger, pc config.PostgresConfig) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	serviceLog.Info("Attempting to connect to Postgres DB now...", "host", pc.Host, "port", pc.Port, "dbname", pc.Name)
	db, err := gorm.Open(postgres.Open(pc.DSN()), gormConfig())
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres DB: %w", err)
	}
	serviceLog.Info("Successfully Connected to Postgres DB :)")
	return &PostgresService{db: db, log: serviceLog}, nil
}

func NewSQLiteService(log *logger.Logger, path string) (*PostgresService, error) {
	serviceLog := log.With("service", "SQLiteService")

	serviceLog.Info("Attempting to open SQLite DB now...", "path", path)
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		serviceLog.Error("Failed to open SQLite DB", "error", err)
		return nil, fmt.Errorf("Failed to open SQLite DB: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// sqlite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	serviceLog.Info("Successfully Opened SQLite DB :)")
	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Starting AutoMigrateAll for all GORM models now...")
	if err := s.db.AutoMigrate(
		&types.Chat{},
		&types.UserChats{},
	); err != nil {
		s.log.Error("AutoMigrateAll failed :(", "error", err)
		return err
	}
	s.log.Info("AutoMigrateAll completed successfully :)")
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
