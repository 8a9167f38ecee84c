package repository

import (
	"context"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutRepository interface {
	ListByPartner(ctx context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Payout, error)
}

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) ListByPartner(ctx context.Context, programID, partnerID uuid.UUID, limit int) ([]model.Payout, error) {
	var payouts []model.Payout
	err := GetDB(ctx, r.db).
		Where("program_id = ? AND partner_id = ?", programID, partnerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
