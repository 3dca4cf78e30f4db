package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is one unit of work on the board. UpdatedAt doubles as the version
// token for optimistic concurrency: every accepted mutation advances it, and
// editors must present the value they last read.
//
// Title uniqueness holds among live tasks only; a soft-deleted row releases
// its title. The service layer enforces it, with a partial unique index as
// backstop on postgres (see database.AddIndexes).
type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(255);index;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Priority       TaskPriority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	AssignedUserID *uint64        `gorm:"index" json:"assigned_user_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	CreatorID      uint64         `gorm:"not null" json:"creator_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedUser *User        `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`
	Creator      User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
