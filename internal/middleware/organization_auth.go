package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/database"
	"github.com/taskflowhq/board-api/internal/models"
)

// RequireOrganizationAccess checks if the user is a member of the
// organization named by the :id route parameter.
func RequireOrganizationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgIDStr := c.Param("id")
		orgID, err := strconv.ParseUint(orgIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid organization ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var org models.Organization
		if err := database.GetDB().First(&org, orgID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking organization existence
		var member models.OrganizationMember
		err = database.GetDB().Where("organization_id = ? AND user_id = ?", orgID, userID).First(&member).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganization, org)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}
