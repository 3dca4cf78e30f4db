package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/dto"
	apierrors "github.com/taskflowhq/board-api/internal/errors"
	"github.com/taskflowhq/board-api/internal/middleware"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/services"
	"github.com/taskflowhq/board-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns an organization's tasks, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	orgID, err := strconv.ParseUint(c.Query("organization_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Organization is required")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		UserID:         userID,
		OrganizationID: orgID,
		Page:           params.Page,
		PageSize:       params.Limit,
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID.
// Task is already loaded with relations by RequireTaskAccess middleware.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, ok := taskInterface.(models.Task)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title          string              `json:"title" binding:"required"`
		Description    string              `json:"description"`
		Status         models.TaskStatus   `json:"status"`
		Priority       models.TaskPriority `json:"priority"`
		AssignedUserID *uint64             `json:"assigned_user_id"`
		OrganizationID uint64              `json:"organization_id" binding:"required"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		AssignedUserID: req.AssignedUserID,
		OrganizationID: req.OrganizationID,
		CreatorID:      userID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTaskRequest carries a change set plus the editor's version token.
// Omitting last_known_update opts out of the conflict check (forced write).
type UpdateTaskRequest struct {
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	Status          *models.TaskStatus   `json:"status"`
	Priority        *models.TaskPriority `json:"priority"`
	AssignedUserID  *uint64              `json:"assigned_user_id"`
	ClearAssignee   bool                 `json:"clear_assignee"`
	LastKnownUpdate *time.Time           `json:"last_known_update"`
}

func (r UpdateTaskRequest) changes() services.TaskChanges {
	return services.TaskChanges{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		AssignedUserID: r.AssignedUserID,
		ClearAssignee:  r.ClearAssignee,
	}
}

// UpdateTask applies an edit through the version guard. A stale version token
// yields 409 with both versions in the details.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, req.changes(), req.LastKnownUpdate, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveConflict settles a reported edit conflict with one of the supported
// strategies.
func (h *TaskHandler) ResolveConflict(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type ResolveRequest struct {
		Strategy services.ResolutionStrategy `json:"strategy" binding:"required"`
		UpdateTaskRequest
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	task, err := h.taskService.ResolveConflict(taskID, req.Strategy, req.changes(), userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SmartAssign assigns the oldest unassigned task to the least-loaded member
func (h *TaskHandler) SmartAssign(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	orgID, err := strconv.ParseUint(c.Query("organization_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Organization is required")
		return
	}

	task, assignee, err := h.taskService.AssignLeastLoaded(orgID, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":          dto.ToTaskDTO(*task),
		"assigned_user": dto.ToUserDTO(*assignee),
	})
}

// respondServiceError maps service errors onto API responses
func (h *TaskHandler) respondServiceError(c *gin.Context, err error) {
	var conflict *services.ConflictError
	switch {
	case errors.As(err, &conflict):
		apierrors.ConflictWithDetails(c, "Task was modified by another user", dto.ConflictDTO{
			TaskID:        conflict.TaskID,
			UserVersion:   conflict.Proposed,
			ServerVersion: dto.ToTaskDTO(conflict.Current),
		})
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrReservedTitle):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeReservedTitle, "Task title cannot match column names")
	case errors.Is(err, services.ErrDuplicateTitle):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeDuplicateTitle, "Task title must be unique")
	case errors.Is(err, services.ErrNotOrganizationMember):
		apierrors.Forbidden(c, "You are not a member of this organization")
	case errors.Is(err, services.ErrNoUnassignedTasks):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeNoUnassignedTasks, "No unassigned tasks available")
	case errors.Is(err, services.ErrNoEligibleMembers):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeNoEligibleMembers, "No members available for assignment")
	case errors.Is(err, services.ErrUnknownResolution):
		apierrors.BadRequest(c, "Unknown conflict resolution strategy")
	default:
		apierrors.InternalError(c, "")
	}
}
