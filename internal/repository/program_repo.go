package repository

import (
	"context"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgramRepository interface {
	FindInWorkspace(ctx context.Context, workspaceID, programID uuid.UUID) (*model.Program, error)
}

type programRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) FindInWorkspace(ctx context.Context, workspaceID, programID uuid.UUID) (*model.Program, error) {
	var program model.Program
	err := GetDB(ctx, r.db).
		Where("id = ? AND workspace_id = ?", programID, workspaceID).
		First(&program).Error
	if err != nil {
		return nil, translate(err)
	}
	return &program, nil
}
