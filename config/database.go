package config

import (
	"context"
	"fmt"
	"time"

	"condofee-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDB opens the postgres connection described by cfg and stores it in DB.
func ConnectDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	dsn, err := buildDSN(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(parseGormLevel(cfg.DBLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	DB = db
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Household{},
		&models.Fee{},
		&models.PaymentSession{},
		&models.SessionFee{},
		&models.Invoice{},
		&models.Transaction{},
		&models.ReminderLog{},
	)
}

func buildDSN(ctx context.Context, cfg *Config) (string, error) {
	if cfg.DBURL != "" {
		return cfg.DBURL, nil
	}
	username, password, err := resolveCredentials(ctx, cfg)
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
		cfg.DBHost, username, password, cfg.DBName, cfg.DBPort)
	if cfg.DBSSLDisabled {
		dsn += " sslmode=disable"
	}
	return dsn, nil
}

func parseGormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	}
	return gormlogger.Error
}
