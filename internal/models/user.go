package models

import (
	"time"

	"gorm.io/gorm"
)

// User carries the display identity referenced by tasks and activity entries.
// Credentials and account lifecycle live in the external auth service.
type User struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks  []Task               `gorm:"foreignKey:CreatorID" json:"-"`
	AssignedTasks []Task               `gorm:"foreignKey:AssignedUserID" json:"-"`
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
}
