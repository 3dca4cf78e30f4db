package dto

import (
	"time"

	"github.com/taskflowhq/board-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// TaskDTO represents a task in API responses. UpdatedAt is the version token
// clients must echo back as last_known_update on their next edit.
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	AssignedUserID *uint64             `json:"assigned_user_id"`
	AssignedUser   *UserDTO            `json:"assigned_user,omitempty"`
	OrganizationID uint64              `json:"organization_id"`
	CreatorID      uint64              `json:"creator_id"`
	Creator        *UserDTO            `json:"creator,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ConflictDTO carries both versions of a contested update so the client can
// run a resolution strategy without fetching again.
type ConflictDTO struct {
	TaskID        uint64      `json:"task_id"`
	UserVersion   interface{} `json:"user_version"`
	ServerVersion TaskDTO     `json:"server_version"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		AssignedUserID: task.AssignedUserID,
		OrganizationID: task.OrganizationID,
		CreatorID:      task.CreatorID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	if task.AssignedUser != nil && task.AssignedUser.ID != 0 {
		assignee := ToUserDTO(*task.AssignedUser)
		dto.AssignedUser = &assignee
	}

	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}
