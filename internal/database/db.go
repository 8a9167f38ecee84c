package database

import (
	"fmt"

	"affiliate/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Workspace{},
		&model.User{},
		&model.WorkspaceUser{},
		&model.Program{},
		&model.Partner{},
		&model.ProgramApplication{},
		&model.ProgramEnrollment{},
		&model.Tag{},
		&model.Link{},
		&model.Reward{},
		&model.PartnerReward{},
		&model.Payout{},
		&model.AuditLog{},
		&model.OutboxJob{},
	)
	if err != nil {
		log.Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
