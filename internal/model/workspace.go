package model

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the tenant boundary. Programs, links and audit entries all belong to one.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceUser grants a user access to a workspace
type WorkspaceUser struct {
	WorkspaceID uuid.UUID `gorm:"type:uuid;primaryKey" json:"workspaceId"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"userId"`
	Role        string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"` // owner, member
	CreatedAt   time.Time `json:"createdAt"`
}
