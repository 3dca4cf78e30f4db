package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/database"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves an organization's tasks, newest first, with pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.organization_id = ?", filter.OrganizationID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("tasks.assigned_user_id = ?", *filter.AssignedUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Offset: (filter.Page - 1) * filter.PageSize,
			Limit:  filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Creator").Preload("AssignedUser").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateConditional applies the task's mutable fields behind a version
// predicate. The stored row is touched only when its updated_at is no newer
// than lastKnown; the check and the write are one statement.
func (r *GormTaskRepository) UpdateConditional(task *models.Task, lastKnown time.Time) (bool, error) {
	res := r.db.Model(&models.Task{}).
		Where("id = ? AND updated_at <= ?", task.ID, lastKnown).
		Updates(map[string]interface{}{
			"title":            task.Title,
			"description":      task.Description,
			"status":           task.Status,
			"priority":         task.Priority,
			"assigned_user_id": task.AssignedUserID,
			"updated_at":       task.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Update writes the task unconditionally (forced write)
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":            task.Title,
			"description":      task.Description,
			"status":           task.Status,
			"priority":         task.Priority,
			"assigned_user_id": task.AssignedUserID,
			"updated_at":       task.UpdatedAt,
		}).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// ListUnassigned returns an organization's unassigned tasks, oldest first
func (r *GormTaskRepository) ListUnassigned(organizationID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("organization_id = ? AND assigned_user_id IS NULL", organizationID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ActiveLoadByMember counts each assignee's not-done tasks in one grouped query
func (r *GormTaskRepository) ActiveLoadByMember(organizationID uint64) (map[uint64]int64, error) {
	type memberLoad struct {
		AssignedUserID uint64
		Count          int64
	}

	var loads []memberLoad
	err := r.db.Model(&models.Task{}).
		Select("assigned_user_id, COUNT(*) AS count").
		Where("organization_id = ? AND assigned_user_id IS NOT NULL AND status <> ?", organizationID, models.TaskStatusDone).
		Group("assigned_user_id").
		Scan(&loads).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uint64]int64, len(loads))
	for _, l := range loads {
		result[l.AssignedUserID] = l.Count
	}
	return result, nil
}

// TitleExists reports whether a different task already uses the title
func (r *GormTaskRepository) TitleExists(title string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.Model(&models.Task{}).Where("title = ?", title)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
