package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// respondError maps service errors onto the API error envelope. Anything
// unrecognised is a storage failure and is logged with its cause.
func respondError(c *gin.Context, log logrus.FieldLogger, operation string, err error) {
	if verr, ok := services.IsValidationError(err); ok {
		apierrors.ValidationFailed(c, "", verr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrNotProjectMember):
		apierrors.RespondWithError(c, http.StatusNotFound, apierrors.NewFailure(err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotProjectManager),
		errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrSelfDemotion),
		errors.Is(err, services.ErrSelfDeletion):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrLastManager),
		errors.Is(err, services.ErrNotDeleted),
		errors.Is(err, services.ErrAdminExists):
		apierrors.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		log.WithFields(logrus.Fields{
			"operation":  operation,
			"request_id": middleware.GetRequestID(c),
		}).WithError(err).Error("request failed")
		apierrors.InternalError(c, "")
	}
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// callerID returns the authenticated user's ID or answers 401
func callerID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

func deletedMessage(subject string, err error) (gin.H, error) {
	if errors.Is(err, services.ErrAlreadyDeleted) {
		return gin.H{"message": subject + " already deleted", "already_deleted": true}, nil
	}
	if err != nil {
		return nil, err
	}
	return gin.H{"message": subject + " deleted successfully", "already_deleted": false}, nil
}
