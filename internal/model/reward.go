package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reward events
const (
	RewardEventClick = "click"
	RewardEventLead  = "lead"
	RewardEventSale  = "sale"
)

// Reward types
const (
	RewardTypeFlat       = "flat"
	RewardTypePercentage = "percentage"
)

// Reward describes what a partner earns for a tracked event.
// Default rewards apply to every partner of the program unless a PartnerReward overrides them.
type Reward struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"programId"`
	Event       string          `gorm:"type:varchar(10);not null" json:"event"`
	Type        string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // dollars for flat, percent for percentage
	MaxDuration *int            `json:"maxDuration"`                               // months; nil = lifetime
	Default     bool            `gorm:"default:false" json:"default"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PartnerReward assigns a reward to a specific partner
type PartnerReward struct {
	RewardID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"rewardId"`
	PartnerID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"partnerId"`
	Reward    Reward    `gorm:"foreignKey:RewardID" json:"-"`
}
