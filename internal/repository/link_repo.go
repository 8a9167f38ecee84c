package repository

import (
	"context"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkAssignment is the program placement written when a link is handed to a partner
type LinkAssignment struct {
	ProgramID uuid.UUID
	PartnerID uuid.UUID
	FolderID  *uuid.UUID
}

type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	FindInWorkspace(ctx context.Context, workspaceID, linkID uuid.UUID) (*model.Link, error)
	AssignPartner(ctx context.Context, linkID uuid.UUID, a LinkAssignment) (*model.Link, error)
	ListByPartner(ctx context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Link, error)
	ListByPartners(ctx context.Context, programID uuid.UUID, partnerIDs []uuid.UUID) ([]model.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Create returns ErrConflict when (domain, key) is taken
func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	return translate(GetDB(ctx, r.db).Create(link).Error)
}

func (r *linkRepository) FindInWorkspace(ctx context.Context, workspaceID, linkID uuid.UUID) (*model.Link, error) {
	var link model.Link
	err := GetDB(ctx, r.db).
		Where("id = ? AND workspace_id = ?", linkID, workspaceID).
		First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

// AssignPartner only succeeds while the link has no partner. A lost race yields ErrConflict.
func (r *linkRepository) AssignPartner(ctx context.Context, linkID uuid.UUID, a LinkAssignment) (*model.Link, error) {
	db := GetDB(ctx, r.db)
	res := db.Model(&model.Link{}).
		Where("id = ? AND partner_id IS NULL", linkID).
		Updates(map[string]interface{}{
			"program_id": a.ProgramID,
			"partner_id": a.PartnerID,
			"folder_id":  a.FolderID,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	var link model.Link
	if err := db.Preload("Tags").First(&link, "id = ?", linkID).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *linkRepository) ListByPartner(ctx context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Link, error) {
	var links []model.Link
	err := GetDB(ctx, r.db).
		Preload("Tags").
		Where("program_id = ? AND partner_id = ?", programID, partnerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) ListByPartners(ctx context.Context, programID uuid.UUID, partnerIDs []uuid.UUID) ([]model.Link, error) {
	if len(partnerIDs) == 0 {
		return nil, nil
	}
	var links []model.Link
	err := GetDB(ctx, r.db).
		Where("program_id = ? AND partner_id IN ?", programID, partnerIDs).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
