package model

import (
	"time"

	"github.com/google/uuid"
)

// Link is a trackable short link. A link belongs to at most one partner;
// partner_id is only ever set while it is NULL.
type Link struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspaceId"`
	ProgramID       *uuid.UUID `gorm:"type:uuid;index" json:"programId"`
	PartnerID       *uuid.UUID `gorm:"type:uuid;index" json:"partnerId"`
	FolderID        *uuid.UUID `gorm:"type:uuid" json:"folderId"`
	Domain          string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_link_domain_key" json:"domain"`
	Key             string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_link_domain_key" json:"key"`
	URL             string     `gorm:"type:text;not null" json:"url"`
	TrackConversion bool       `gorm:"default:false" json:"trackConversion"`
	Clicks          int64      `gorm:"default:0" json:"clicks"`
	Leads           int64      `gorm:"default:0" json:"leads"`
	Sales           int64      `gorm:"default:0" json:"sales"`
	SaleAmount      int64      `gorm:"default:0" json:"saleAmount"` // cents
	Tags            []Tag      `gorm:"many2many:link_tags;" json:"tags"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ShortLink renders the public URL of the link
func (l Link) ShortLink() string {
	return "https://" + l.Domain + "/" + l.Key
}

// Tag labels links inside a workspace
type Tag struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspaceId"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Color       string    `gorm:"type:varchar(20)" json:"color"`
}
