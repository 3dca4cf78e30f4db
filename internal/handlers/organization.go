package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/dto"
	apierrors "github.com/taskflowhq/board-api/internal/errors"
	"github.com/taskflowhq/board-api/internal/middleware"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/services"
)

// OrganizationHandler exposes the read-only membership surface. Creating
// organizations and managing membership belongs to the external membership
// service.
type OrganizationHandler struct {
	membershipService *services.MembershipService
}

func NewOrganizationHandler(membershipService *services.MembershipService) *OrganizationHandler {
	return &OrganizationHandler{
		membershipService: membershipService,
	}
}

// ListOrganizations returns the organizations the current user belongs to
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.membershipService.ListOrganizationsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	orgs := make([]dto.OrganizationDTO, 0, len(memberships))
	for _, m := range memberships {
		orgs = append(orgs, dto.ToOrganizationDTO(m.Organization))
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgInterface, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	org, ok := orgInterface.(models.Organization)
	if !ok {
		apierrors.InternalError(c, "Invalid organization data")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(org))
}

// ListMembers returns the organization's member set
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	orgInterface, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	org, ok := orgInterface.(models.Organization)
	if !ok {
		apierrors.InternalError(c, "Invalid organization data")
		return
	}

	members, err := h.membershipService.Members(org.ID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}
