package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus enum constants
const (
	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
	EnrollmentRejected = "rejected"
	EnrollmentInvited  = "invited"
	EnrollmentDeclined = "declined"
	EnrollmentBanned   = "banned"
)

// Program is a workspace's affiliate scheme. It supplies the defaults used when
// links are created for, or attached to, its partners.
type Program struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspaceId"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug            string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Logo            string     `gorm:"type:text" json:"logo"`
	Domain          string     `gorm:"type:varchar(255)" json:"domain"`
	URL             string     `gorm:"type:text" json:"url"`
	DefaultFolderID *uuid.UUID `gorm:"type:uuid" json:"defaultFolderId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ProgramEnrollment links a partner to a program. Unique per (partner, program).
type ProgramEnrollment struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PartnerID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_partner_program" json:"partnerId"`
	ProgramID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_partner_program;index" json:"programId"`
	Status        string              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApplicationID *uuid.UUID          `gorm:"type:uuid" json:"applicationId"`
	Partner       Partner             `gorm:"foreignKey:PartnerID" json:"partner"`
	Application   *ProgramApplication `gorm:"foreignKey:ApplicationID" json:"-"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ProgramApplication holds the answers a partner submitted when applying
type ProgramApplication struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID uuid.UUID `gorm:"type:uuid;not null;index" json:"programId"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Proposal  *string   `gorm:"type:text" json:"proposal"`
	Comments  *string   `gorm:"type:text" json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}
