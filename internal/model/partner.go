package model

import (
	"time"

	"github.com/google/uuid"
)

// Partner is an external affiliate. A partner can be enrolled in many programs.
type Partner struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	Email            *string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Image            string     `gorm:"type:text" json:"image"`
	Country          string     `gorm:"type:varchar(2)" json:"country"`
	Description      *string    `gorm:"type:text" json:"description"`
	PayoutsEnabledAt *time.Time `json:"payoutsEnabledAt"`

	// Online presence
	Website   string `gorm:"type:varchar(255)" json:"website"`
	YouTube   string `gorm:"type:varchar(255)" json:"youtube"`
	Twitter   string `gorm:"type:varchar(255)" json:"twitter"`
	LinkedIn  string `gorm:"type:varchar(255)" json:"linkedin"`
	Instagram string `gorm:"type:varchar(255)" json:"instagram"`
	TikTok    string `gorm:"type:varchar(255)" json:"tiktok"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName falls back to the email when the partner has no name
func (p Partner) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != nil {
		return *p.Email
	}
	return ""
}
