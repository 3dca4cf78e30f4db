package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization rows are administered by the external membership service;
// this service only reads them.
type Organization struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	OwnerID   uint64         `gorm:"not null" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Tasks   []Task               `gorm:"foreignKey:OrganizationID" json:"tasks,omitempty"`
}
