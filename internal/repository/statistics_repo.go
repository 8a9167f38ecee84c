package repository

import (
	"context"
	"fmt"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, programID uuid.UUID) ([]model.StatusCount, error)
	TopPartners(ctx context.Context, programID uuid.UUID, limit int) ([]model.PartnerRanking, error)
	SaleAmount(ctx context.Context, programID uuid.UUID) (int64, error)
	PaidOut(ctx context.Context, programID uuid.UUID) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, programID uuid.UUID) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := GetDB(ctx, r.db).Model(&model.ProgramEnrollment{}).
		Select("status, COUNT(*) as count").
		Where("program_id = ?", programID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return counts, nil
}

// TopPartners ranks approved partners by the sale amount of their program links
func (r *statisticsRepository) TopPartners(ctx context.Context, programID uuid.UUID, limit int) ([]model.PartnerRanking, error) {
	var rankings []model.PartnerRanking
	if err := GetDB(ctx, r.db).Table("links").
		Select("partners.id as partner_id, partners.name as name, SUM(links.clicks) as clicks, SUM(links.sales) as sales, SUM(links.sale_amount) as sale_amount").
		Joins("JOIN partners ON partners.id = links.partner_id").
		Joins("JOIN program_enrollments ON program_enrollments.partner_id = links.partner_id AND program_enrollments.program_id = links.program_id").
		Where("links.program_id = ? AND program_enrollments.status = ?", programID, model.EnrollmentApproved).
		Group("partners.id, partners.name").
		Order("sale_amount DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top partners: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) SaleAmount(ctx context.Context, programID uuid.UUID) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Link{}).
		Select("COALESCE(SUM(sale_amount), 0)").
		Where("program_id = ? AND partner_id IS NOT NULL", programID).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum sale amount: %w", err)
	}
	return total, nil
}

func (r *statisticsRepository) PaidOut(ctx context.Context, programID uuid.UUID) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Payout{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("program_id = ? AND status = ?", programID, model.PayoutCompleted).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum payouts: %w", err)
	}
	return total, nil
}
