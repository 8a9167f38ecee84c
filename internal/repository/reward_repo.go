package repository

import (
	"context"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardRepository interface {
	FindPartnerReward(ctx context.Context, programID, partnerID uuid.UUID, event string) (*model.Reward, error)
	FindDefaultReward(ctx context.Context, programID uuid.UUID, event string) (*model.Reward, error)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) FindPartnerReward(ctx context.Context, programID, partnerID uuid.UUID, event string) (*model.Reward, error) {
	var reward model.Reward
	err := GetDB(ctx, r.db).
		Joins("JOIN partner_rewards pr ON pr.reward_id = rewards.id").
		Where("rewards.program_id = ? AND rewards.event = ? AND pr.partner_id = ?", programID, event, partnerID).
		Order("rewards.created_at DESC").
		First(&reward).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}

func (r *rewardRepository) FindDefaultReward(ctx context.Context, programID uuid.UUID, event string) (*model.Reward, error) {
	var reward model.Reward
	err := GetDB(ctx, r.db).
		Where("program_id = ? AND event = ? AND \"default\" = ?", programID, event, true).
		First(&reward).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}
