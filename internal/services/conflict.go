package services

import (
	"fmt"

	"github.com/taskflowhq/board-api/internal/models"
)

// TaskChanges is a caller's proposed change set. Nil fields are untouched;
// ClearAssignee removes the assignee explicitly since a nil pointer cannot
// distinguish "unset" from "clear".
type TaskChanges struct {
	Title          *string              `json:"title,omitempty"`
	Description    *string              `json:"description,omitempty"`
	Status         *models.TaskStatus   `json:"status,omitempty"`
	Priority       *models.TaskPriority `json:"priority,omitempty"`
	AssignedUserID *uint64              `json:"assigned_user_id,omitempty"`
	ClearAssignee  bool                 `json:"clear_assignee,omitempty"`
}

// ConflictError reports that another editor committed a newer version of the
// task. It carries both the caller's proposed change set and the full current
// record so a resolution strategy can be chosen without another fetch.
type ConflictError struct {
	TaskID   uint64
	Proposed TaskChanges
	Current  models.Task
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %d was modified by another editor", e.TaskID)
}

// ResolutionStrategy selects how a reported conflict is settled.
type ResolutionStrategy string

const (
	// ResolutionOverwrite resubmits the caller's version as a forced write.
	ResolutionOverwrite ResolutionStrategy = "overwrite"
	// ResolutionKeepServer discards the caller's edit.
	ResolutionKeepServer ResolutionStrategy = "keep-server"
	// ResolutionMerge layers the caller's changed fields over the current
	// record and writes through the conditional path with the now-current
	// version token.
	ResolutionMerge ResolutionStrategy = "merge"
)
