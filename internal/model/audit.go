package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditPartnerApproved = "partner.approved"
	AuditPartnerRejected = "partner.rejected"
	AuditLinkCreated     = "link.created"
)

// AuditLog tracks who did what to which program. Rows are only ever inserted.
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspaceId"`
	ProgramID   *uuid.UUID `gorm:"type:uuid;index" json:"programId"`
	ActorID     *uuid.UUID `gorm:"type:uuid;index" json:"actorId"` // nil for automated actors
	ActorName   string     `gorm:"type:varchar(255)" json:"actorName"`
	Description string     `gorm:"type:text;not null" json:"description"`
	EventType   string     `gorm:"type:varchar(50);not null;index" json:"eventType"`
	Metadata    string     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
}
