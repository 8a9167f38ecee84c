package model

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus enum constants
const (
	PayoutPending    = "pending"
	PayoutProcessing = "processing"
	PayoutCompleted  = "completed"
	PayoutFailed     = "failed"
	PayoutCanceled   = "canceled"
)

// Payout is money owed or paid to a partner for a period
type Payout struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"programId"`
	PartnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"partnerId"`
	PeriodStart *time.Time `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd"`
	Amount      int64      `gorm:"not null" json:"amount"` // cents
	Currency    string     `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
