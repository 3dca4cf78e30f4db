package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskflowhq/board-api/internal/dto"
	apierrors "github.com/taskflowhq/board-api/internal/errors"
	"github.com/taskflowhq/board-api/internal/middleware"
	"github.com/taskflowhq/board-api/internal/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// ListActivities returns an organization's newest audit entries, most recent
// first, bounded by the feed limit.
func (h *ActivityHandler) ListActivities(c *gin.Context) {
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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	activities, err := h.activityService.List(orgID, userID, limit)
	if err != nil {
		if errors.Is(err, services.ErrNotOrganizationMember) {
			apierrors.Forbidden(c, "You are not a member of this organization")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": dto.ToActivityDTOs(activities),
	})
}
