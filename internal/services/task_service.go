package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/broadcast"
	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/repository"
)

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrTitleRequired         = errors.New("title is required")
	ErrReservedTitle         = errors.New("task title cannot match column names")
	ErrDuplicateTitle        = errors.New("task title must be unique")
	ErrNotOrganizationMember = errors.New("user is not a member of the organization")
	ErrNoUnassignedTasks     = errors.New("no unassigned tasks available")
	ErrNoEligibleMembers     = errors.New("organization has no members to assign to")
	ErrUnknownResolution     = errors.New("unknown conflict resolution strategy")
)

// taskPreloads are the relations loaded for task responses and broadcasts.
var taskPreloads = []string{"Creator", "AssignedUser"}

// TaskService owns every mutation path for tasks: validation, the version
// guard, the activity record that follows each accepted mutation, and the
// broadcast of both.
type TaskService struct {
	taskRepo     repository.TaskRepository
	activityRepo repository.ActivityRepository
	orgRepo      repository.OrganizationRepository
	userRepo     repository.UserRepository
	hub          *broadcast.Hub
	logger       *logrus.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	activityRepo repository.ActivityRepository,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	hub *broadcast.Hub,
	logger *logrus.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		orgRepo:      orgRepo,
		userRepo:     userRepo,
		hub:          hub,
		logger:       logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	AssignedUserID *uint64
	OrganizationID uint64
	CreatorID      uint64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	OrganizationID uint64
	Status         *models.TaskStatus
	AssignedUserID *uint64
	Page           int
	PageSize       int
}

// ListTasks returns an organization's tasks, newest first
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	if err := s.ensureOrganizationMember(input.OrganizationID, input.UserID); err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		OrganizationID: input.OrganizationID,
		Status:         input.Status,
		AssignedUserID: input.AssignedUserID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask validates and creates a task, records the create activity, and
// broadcasts both to the organization's subscribers.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if err := s.validateTitle(title, 0); err != nil {
		return nil, err
	}

	if err := s.ensureOrganizationMember(input.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		AssignedUserID: input.AssignedUserID,
		OrganizationID: input.OrganizationID,
		CreatorID:      input.CreatorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		// A racing create can slip past the pre-check; the unique index
		// backstop catches it and the caller still gets the structured
		// duplicate rejection.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.hub.Publish(created.OrganizationID, broadcast.EventTaskCreated, created)
	s.recordActivity(models.ActivityActionCreate, input.CreatorID, created, models.ActivityDetails{
		Title: created.Title,
	})

	return created, nil
}

// UpdateTask applies a change set through the version guard. A nil lastKnown
// is an explicit forced write with no conflict check. On a stale token the
// returned error is a *ConflictError carrying the current record; the store
// is left untouched.
func (s *TaskService) UpdateTask(taskID uint64, changes TaskChanges, lastKnown *time.Time, actorID uint64) (*models.Task, error) {
	current, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	// Fast-path guard. The conditional write below re-checks atomically, so
	// a racing editor slipping in between here and the write is still caught.
	if lastKnown != nil && lastKnown.Before(current.UpdatedAt) {
		return nil, &ConflictError{TaskID: taskID, Proposed: changes, Current: *current}
	}

	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if title != current.Title {
			if err := s.validateTitle(title, taskID); err != nil {
				return nil, err
			}
		}
		changes.Title = &title
	}

	updated := *current
	applyChanges(&updated, changes)

	// The commit time becomes the next version token; it must move strictly
	// forward even within clock granularity.
	commit := time.Now()
	if !commit.After(current.UpdatedAt) {
		commit = current.UpdatedAt.Add(time.Millisecond)
	}
	updated.UpdatedAt = commit

	if lastKnown != nil {
		ok, err := s.taskRepo.UpdateConditional(&updated, *lastKnown)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateTitle
			}
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		if !ok {
			fresh, err := s.taskRepo.FindByID(taskID, taskPreloads...)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrTaskNotFound
				}
				return nil, fmt.Errorf("failed to find task: %w", err)
			}
			return nil, &ConflictError{TaskID: taskID, Proposed: changes, Current: *fresh}
		}
	} else {
		if err := s.taskRepo.Update(&updated); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateTitle
			}
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	reloaded, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	action, details := s.classifyUpdate(current, reloaded, changes)

	s.hub.Publish(reloaded.OrganizationID, broadcast.EventTaskUpdated, reloaded)
	s.recordActivity(action, actorID, reloaded, details)

	return reloaded, nil
}

// DeleteTask removes a task, records the delete activity, and broadcasts both.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.hub.Publish(task.OrganizationID, broadcast.EventTaskDeleted, task)
	s.recordActivity(models.ActivityActionDelete, actorID, task, models.ActivityDetails{
		Title: task.Title,
	})

	return nil
}

// AssignLeastLoaded picks the oldest unassigned task in the organization and
// assigns it to the member with the fewest not-done tasks. The write goes
// through the normal mutation path, so the assign activity and broadcasts
// follow as for any direct edit.
func (s *TaskService) AssignLeastLoaded(organizationID, actorID uint64) (*models.Task, *models.User, error) {
	if err := s.ensureOrganizationMember(organizationID, actorID); err != nil {
		return nil, nil, err
	}

	unassigned, err := s.taskRepo.ListUnassigned(organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list unassigned tasks: %w", err)
	}
	if len(unassigned) == 0 {
		return nil, nil, ErrNoUnassignedTasks
	}

	members, err := s.orgRepo.ListMembers(organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	if len(members) == 0 {
		return nil, nil, ErrNoEligibleMembers
	}

	loads, err := s.taskRepo.ActiveLoadByMember(organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count member loads: %w", err)
	}

	// Strictly smallest load wins; ties keep the first member encountered.
	selected := members[0]
	for _, m := range members[1:] {
		if loads[m.UserID] < loads[selected.UserID] {
			selected = m
		}
	}

	// A concurrent direct edit may claim the task between the scan above and
	// this write; last write wins through the normal path.
	task, err := s.UpdateTask(unassigned[0].ID, TaskChanges{AssignedUserID: &selected.UserID}, nil, actorID)
	if err != nil {
		return nil, nil, err
	}

	assignee := selected.User
	if assignee.ID == 0 {
		if u, err := s.userRepo.FindByID(selected.UserID); err == nil {
			assignee = *u
		}
	}

	return task, &assignee, nil
}

// ResolveConflict settles a previously reported conflict with one of the
// three supported strategies. Merge writes through the conditional path with
// the now-current version token, so a second conflict under continued
// contention is still reported.
func (s *TaskService) ResolveConflict(taskID uint64, strategy ResolutionStrategy, proposed TaskChanges, actorID uint64) (*models.Task, error) {
	switch strategy {
	case ResolutionOverwrite:
		return s.UpdateTask(taskID, proposed, nil, actorID)
	case ResolutionKeepServer:
		return s.GetTask(taskID)
	case ResolutionMerge:
		current, err := s.taskRepo.FindByID(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to find task: %w", err)
		}
		token := current.UpdatedAt
		return s.UpdateTask(taskID, proposed, &token, actorID)
	default:
		return nil, ErrUnknownResolution
	}
}

// validateTitle enforces the reserved-name and global-uniqueness rules.
func (s *TaskService) validateTitle(title string, excludeID uint64) error {
	if constants.IsReservedTitle(title) {
		return ErrReservedTitle
	}
	exists, err := s.taskRepo.TitleExists(title, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return ErrDuplicateTitle
	}
	return nil
}

// classifyUpdate picks the activity action for an accepted update: a status
// change is a move, an assignee change is an assign, anything else an update.
func (s *TaskService) classifyUpdate(before, after *models.Task, changes TaskChanges) (models.ActivityAction, models.ActivityDetails) {
	details := models.ActivityDetails{Title: after.Title}

	if changes.Status != nil && *changes.Status != before.Status {
		details.NewStatus = string(after.Status)
		return models.ActivityActionMove, details
	}

	if assigneeChanged(before.AssignedUserID, after.AssignedUserID, changes) {
		details.AssignedTo = "Unassigned"
		if after.AssignedUser != nil {
			details.AssignedTo = after.AssignedUser.Username
		}
		return models.ActivityActionAssign, details
	}

	return models.ActivityActionUpdate, details
}

// recordActivity appends the audit entry for a committed mutation and
// broadcasts it. Failure here is degraded success: the mutation stands, the
// missing entry is logged and surfaced to operators only.
func (s *TaskService) recordActivity(action models.ActivityAction, actorID uint64, task *models.Task, details models.ActivityDetails) {
	activity := &models.Activity{
		Action:         action,
		UserID:         actorID,
		TaskID:         task.ID,
		OrganizationID: task.OrganizationID,
		Details:        details,
	}

	if err := s.activityRepo.Create(activity); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"action":  action,
		}).Warn("mutation committed but activity record failed")
		return
	}

	if actor, err := s.userRepo.FindByID(actorID); err == nil {
		activity.User = *actor
	}

	s.hub.Publish(task.OrganizationID, broadcast.EventActivityAdded, activity)
}

// ensureOrganizationMember verifies that a user belongs to an organization
func (s *TaskService) ensureOrganizationMember(orgID, userID uint64) error {
	_, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return nil
}

// applyChanges layers the set fields of a change set onto the task.
func applyChanges(task *models.Task, changes TaskChanges) {
	if changes.Title != nil {
		task.Title = *changes.Title
	}
	if changes.Description != nil {
		task.Description = *changes.Description
	}
	if changes.Status != nil {
		task.Status = *changes.Status
	}
	if changes.Priority != nil {
		task.Priority = *changes.Priority
	}
	if changes.ClearAssignee {
		task.AssignedUserID = nil
		task.AssignedUser = nil
	} else if changes.AssignedUserID != nil {
		task.AssignedUserID = changes.AssignedUserID
	}
}

func assigneeChanged(before, after *uint64, changes TaskChanges) bool {
	if changes.AssignedUserID == nil && !changes.ClearAssignee {
		return false
	}
	if before == nil && after == nil {
		return false
	}
	if before == nil || after == nil {
		return true
	}
	return *before != *after
}
