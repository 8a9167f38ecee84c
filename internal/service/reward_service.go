package service

import (
	"context"
	"errors"
	"fmt"

	"affiliate/internal/model"
	"affiliate/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RewardService resolves the reward terms a partner earns in a program
type RewardService interface {
	DeterminePartnerReward(ctx context.Context, programID, partnerID uuid.UUID, event string) (*model.Reward, error)
}

type rewardService struct {
	repo repository.RewardRepository
}

func NewRewardService(repo repository.RewardRepository) RewardService {
	return &rewardService{repo: repo}
}

// DeterminePartnerReward prefers a reward assigned to the partner, then the program default.
// A nil reward with a nil error means the program has no reward for event.
func (s *rewardService) DeterminePartnerReward(ctx context.Context, programID, partnerID uuid.UUID, event string) (*model.Reward, error) {
	reward, err := s.repo.FindPartnerReward(ctx, programID, partnerID, event)
	if err == nil {
		return reward, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load partner reward: %w", err)
	}

	reward, err = s.repo.FindDefaultReward(ctx, programID, event)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load default reward: %w", err)
	}
	return reward, nil
}

var rewardPrinter = message.NewPrinter(language.English)

// DescribeReward renders reward terms for partner-facing copy, e.g. "Earn 10% for each sale, for 12 months".
func DescribeReward(r *model.Reward) string {
	if r == nil {
		return ""
	}

	desc := fmt.Sprintf("Earn %s for each %s", formatRewardAmount(r), r.Event)
	if r.Event != model.RewardEventSale {
		return desc
	}

	switch {
	case r.MaxDuration == nil:
		desc += ", for the customer's lifetime"
	case *r.MaxDuration == 1:
		desc += ", for 1 month"
	case *r.MaxDuration > 1:
		desc += fmt.Sprintf(", for %d months", *r.MaxDuration)
	}
	return desc
}

func formatRewardAmount(r *model.Reward) string {
	amount := r.Amount
	if r.Type == model.RewardTypePercentage {
		return amount.String() + "%"
	}
	if amount.Equal(amount.Truncate(0)) {
		return "$" + rewardPrinter.Sprintf("%d", amount.IntPart())
	}
	return "$" + rewardPrinter.Sprintf("%.2f", amount.InexactFloat64())
}
