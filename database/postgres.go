package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 10

// ConnectPostgres opens dsn, retrying with a growing back-off while the
// database comes up, then migrates the given models.
func ConnectPostgres(dsn string, logger *zap.Logger, autoMigrateModels ...interface{}) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err == nil {
			break
		}
		logger.Warn("DB connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(time.Duration(i+1) * 2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	logger.Info("Connected to PostgreSQL successfully")

	if len(autoMigrateModels) > 0 {
		if err := db.AutoMigrate(autoMigrateModels...); err != nil {
			return nil, fmt.Errorf("AutoMigrate failed: %w", err)
		}
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
