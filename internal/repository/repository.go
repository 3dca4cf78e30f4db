package repository

import (
	"time"

	"github.com/taskflowhq/board-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves an organization's tasks, newest first, with pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// UpdateConditional writes the task's mutable fields only if the stored
	// version is not newer than lastKnown. The version predicate and the
	// write happen in a single statement, so two racing editors holding the
	// same stale version cannot both succeed. Returns false when the
	// predicate rejected the write.
	UpdateConditional(task *models.Task, lastKnown time.Time) (bool, error)

	// Update writes the task unconditionally (forced write, no version check)
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// ListUnassigned returns an organization's unassigned tasks, oldest first
	ListUnassigned(organizationID uint64) ([]models.Task, error)

	// ActiveLoadByMember returns, per assignee, the count of tasks in the
	// organization that are not yet done
	ActiveLoadByMember(organizationID uint64) (map[uint64]int64, error)

	// TitleExists reports whether another task already uses the title
	TitleExists(title string, excludeID uint64) (bool, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationID uint64
	Status         *models.TaskStatus
	AssignedUserID *uint64
	Page           int
	PageSize       int
}

// ActivityRepository defines the interface for the append-only activity log
type ActivityRepository interface {
	// Create appends an activity entry; entries are never updated or deleted
	Create(activity *models.Activity) error

	// ListByOrganization returns the newest entries for an organization,
	// most recent first, bounded by limit
	ListByOrganization(organizationID uint64, limit int) ([]models.Activity, error)
}

// OrganizationRepository defines read access to the membership snapshot
// maintained by the external membership service
type OrganizationRepository interface {
	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembers lists all members of an organization in stable order
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)
}
