package dto

import (
	"time"

	"github.com/taskflowhq/board-api/internal/models"
)

// ActivityDTO represents an audit entry in API responses
type ActivityDTO struct {
	ID             uint64                 `json:"id"`
	Action         models.ActivityAction  `json:"action"`
	User           *UserDTO               `json:"user,omitempty"`
	TaskID         uint64                 `json:"task_id"`
	OrganizationID uint64                 `json:"organization_id"`
	Details        models.ActivityDetails `json:"details"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ToActivityDTO converts an Activity model to ActivityDTO
func ToActivityDTO(activity models.Activity) ActivityDTO {
	dto := ActivityDTO{
		ID:             activity.ID,
		Action:         activity.Action,
		TaskID:         activity.TaskID,
		OrganizationID: activity.OrganizationID,
		Details:        activity.Details,
		CreatedAt:      activity.CreatedAt,
	}

	if activity.User.ID != 0 {
		user := ToUserDTO(activity.User)
		dto.User = &user
	}

	return dto
}

// ToActivityDTOs converts a slice of activities
func ToActivityDTOs(activities []models.Activity) []ActivityDTO {
	items := make([]ActivityDTO, len(activities))
	for i, activity := range activities {
		items[i] = ToActivityDTO(activity)
	}
	return items
}
