package repository

import (
	"context"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerRepository reads and transitions program enrollments
type PartnerRepository interface {
	FindEnrollment(ctx context.Context, programID, partnerID uuid.UUID) (*model.ProgramEnrollment, error)
	ListEnrollments(ctx context.Context, programID uuid.UUID, status string, page, limit int) ([]model.ProgramEnrollment, int64, error)
	UpdateEnrollmentStatus(ctx context.Context, programID, partnerID uuid.UUID, status string) (*model.ProgramEnrollment, error)
	FindApplication(ctx context.Context, programID, applicationID uuid.UUID) (*model.ProgramApplication, error)
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) FindEnrollment(ctx context.Context, programID, partnerID uuid.UUID) (*model.ProgramEnrollment, error) {
	var enrollment model.ProgramEnrollment
	err := GetDB(ctx, r.db).
		Preload("Partner").
		Where("program_id = ? AND partner_id = ?", programID, partnerID).
		First(&enrollment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &enrollment, nil
}

func (r *partnerRepository) ListEnrollments(ctx context.Context, programID uuid.UUID, status string, page, limit int) ([]model.ProgramEnrollment, int64, error) {
	var enrollments []model.ProgramEnrollment
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ProgramEnrollment{}).Where("program_id = ?", programID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Partner").Where("program_id = ?", programID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// UpdateEnrollmentStatus sets status unconditionally and returns the enrollment with its partner
func (r *partnerRepository) UpdateEnrollmentStatus(ctx context.Context, programID, partnerID uuid.UUID, status string) (*model.ProgramEnrollment, error) {
	db := GetDB(ctx, r.db)
	res := db.Model(&model.ProgramEnrollment{}).
		Where("program_id = ? AND partner_id = ?", programID, partnerID).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindEnrollment(ctx, programID, partnerID)
}

func (r *partnerRepository) FindApplication(ctx context.Context, programID, applicationID uuid.UUID) (*model.ProgramApplication, error) {
	var app model.ProgramApplication
	err := GetDB(ctx, r.db).
		Where("id = ? AND program_id = ?", applicationID, programID).
		First(&app).Error
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}
