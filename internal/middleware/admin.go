package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

// AuthorizeAdmin reports whether the caller may pass the admin gate.
func AuthorizeAdmin(caller *models.User) bool {
	return caller != nil && caller.IsAdmin
}

// RequireAdmin lets only admins through. Anonymous callers and non-admins
// get the same 403 body so the response does not reveal which one it was.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AuthorizeAdmin(GetCaller(c)) {
			apierrors.AbortWithError(c, http.StatusForbidden, apierrors.NewFailure(constants.MessageAdminOnly))
			return
		}
		c.Next()
	}
}
