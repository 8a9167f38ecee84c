package service

import (
	"context"
	"errors"
	"testing"

	"affiliate/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDeterminePartnerRewardPrefersPartnerOverride(t *testing.T) {
	store := newMemStore()
	programID, partnerID := uuid.New(), uuid.New()
	def := model.Reward{ID: uuid.New(), ProgramID: programID, Event: model.RewardEventSale, Type: model.RewardTypePercentage, Amount: decimal.NewFromInt(10), Default: true}
	override := model.Reward{ID: uuid.New(), ProgramID: programID, Event: model.RewardEventSale, Type: model.RewardTypePercentage, Amount: decimal.NewFromInt(25)}
	store.rewards = []model.Reward{def, override}
	store.partnerRewards[override.ID] = partnerID

	svc := NewRewardService(memRewards{store})

	got, err := svc.DeterminePartnerReward(context.Background(), programID, partnerID, model.RewardEventSale)
	if err != nil {
		t.Fatalf("DeterminePartnerReward() error = %v", err)
	}
	if got == nil || got.ID != override.ID {
		t.Fatalf("reward = %+v, want override", got)
	}

	got, err = svc.DeterminePartnerReward(context.Background(), programID, uuid.New(), model.RewardEventSale)
	if err != nil {
		t.Fatalf("DeterminePartnerReward() error = %v", err)
	}
	if got == nil || got.ID != def.ID {
		t.Fatalf("reward = %+v, want program default", got)
	}

	got, err = svc.DeterminePartnerReward(context.Background(), programID, partnerID, model.RewardEventLead)
	if err != nil || got != nil {
		t.Fatalf("lead reward = %+v, %v, want nil, nil", got, err)
	}
}

func TestDeterminePartnerRewardPropagatesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.rewardErr = errors.New("timeout")

	_, err := NewRewardService(memRewards{store}).DeterminePartnerReward(context.Background(), uuid.New(), uuid.New(), model.RewardEventSale)
	if err == nil || !errors.Is(err, store.rewardErr) {
		t.Fatalf("error = %v, want wrapped store error", err)
	}
}

func TestDescribeReward(t *testing.T) {
	months := func(n int) *int { return &n }

	tests := []struct {
		name   string
		reward *model.Reward
		want   string
	}{
		{"nil", nil, ""},
		{
			"percentage lifetime",
			&model.Reward{Event: model.RewardEventSale, Type: model.RewardTypePercentage, Amount: decimal.RequireFromString("10.00")},
			"Earn 10% for each sale, for the customer's lifetime",
		},
		{
			"fractional percentage",
			&model.Reward{Event: model.RewardEventSale, Type: model.RewardTypePercentage, Amount: decimal.RequireFromString("12.5"), MaxDuration: months(12)},
			"Earn 12.5% for each sale, for 12 months",
		},
		{
			"flat one month",
			&model.Reward{Event: model.RewardEventSale, Type: model.RewardTypeFlat, Amount: decimal.NewFromInt(5), MaxDuration: months(1)},
			"Earn $5 for each sale, for 1 month",
		},
		{
			"flat one time",
			&model.Reward{Event: model.RewardEventSale, Type: model.RewardTypeFlat, Amount: decimal.RequireFromString("1500"), MaxDuration: months(0)},
			"Earn $1,500 for each sale",
		},
		{
			"flat cents per lead",
			&model.Reward{Event: model.RewardEventLead, Type: model.RewardTypeFlat, Amount: decimal.RequireFromString("2.50")},
			"Earn $2.50 for each lead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeReward(tt.reward); got != tt.want {
				t.Fatalf("DescribeReward() = %q, want %q", got, tt.want)
			}
		})
	}
}
