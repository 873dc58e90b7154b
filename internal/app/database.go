package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDatabase establishes a pgx connection pool used for health checks
func ConnectDatabase(cfg *config.Config, log logger.Logger) (*pgxpool.Pool, error) {
	// Connect to database
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	// Ping database to verify connection
	if err := dbPool.Ping(context.Background()); err != nil {
		dbPool.Close()
		return nil, err
	}

	log.Info("Connected to database")
	return dbPool, nil
}

// ConnectGORMDatabase establishes the GORM connection used by repositories
// and migrates the lab schema.
func ConnectGORMDatabase(cfg *config.Config, log logger.Logger) (*gorm.DB, error) {
	gormLogLevel := gormlogger.Silent
	if cfg.App.Debug {
		gormLogLevel = gormlogger.Warn
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := gormDB.AutoMigrate(
		&entity.LabTemplate{},
		&entity.SetupStep{},
		&entity.Lab{},
		&entity.SetupExecutionLog{},
	); err != nil {
		return nil, err
	}

	log.Info("Connected to database with GORM")
	return gormDB, nil
}
