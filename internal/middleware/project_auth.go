package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// RequireProjectMember checks the caller belongs to the project in the :id parameter
func RequireProjectMember(membershipService *services.MembershipService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || projectID == 0 {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := membershipService.GetMembership(projectID, userID)
		if err != nil {
			if errors.Is(err, services.ErrNotProjectMember) {
				// Unknown projects answer the same way to avoid leaking their existence
				apierrors.AbortWithError(c, http.StatusNotFound, apierrors.NewFailure(constants.MessageNotProjectMember))
				return
			}
			log.WithError(err).WithField("project_id", projectID).Error("Failed to verify project membership")
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireProjectManager checks the caller is a manager of the project.
// Must run after RequireProjectMember.
func RequireProjectManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, exists := GetMembership(c)
		if !exists {
			apierrors.Forbidden(c, "Project access required")
			c.Abort()
			return
		}

		if member.Role != models.RoleManager {
			apierrors.Forbidden(c, "Only project managers can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetMembership returns the membership stored by RequireProjectMember
func GetMembership(c *gin.Context) (*models.Membership, bool) {
	value, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return nil, false
	}
	member, ok := value.(*models.Membership)
	return member, ok
}
