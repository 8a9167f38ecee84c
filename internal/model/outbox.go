package model

import "time"

// OutboxStatus enum constants
const (
	OutboxPending = "pending"
	OutboxLeased  = "leased"
	OutboxDone    = "done"
	OutboxDead    = "dead"
)

// OutboxJob is a deferred side effect written in the same transaction as the
// state change that caused it. Workers lease, run and settle jobs independently.
type OutboxJob struct {
	ID             string     `gorm:"type:varchar(26);primaryKey" json:"id"` // ULID
	Kind           string     `gorm:"type:varchar(50);not null;index" json:"kind"`
	Payload        string     `gorm:"type:jsonb;not null" json:"payload"`
	Status         string     `gorm:"type:varchar(10);not null;default:'pending';index:idx_outbox_due,priority:1" json:"status"`
	AttemptCount   int        `gorm:"not null;default:0" json:"attemptCount"`
	NextAttemptAt  time.Time  `gorm:"not null;index:idx_outbox_due,priority:2" json:"nextAttemptAt"`
	LeaseOwner     string     `gorm:"type:varchar(100)" json:"leaseOwner"`
	LeaseExpiresAt *time.Time `json:"leaseExpiresAt"`
	LastError      string     `gorm:"type:text" json:"lastError"`
	ProcessedAt    *time.Time `json:"processedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
