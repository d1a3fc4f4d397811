package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// MembershipHandler handles the project member endpoints
type MembershipHandler struct {
	membershipService *services.MembershipService
	log               logrus.FieldLogger
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService *services.MembershipService, log logrus.FieldLogger) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		log:               log,
	}
}

// ListMembers lists the users of a project
// GET /api/projects/:id/members
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	members, err := h.membershipService.ListMembers(projectID)
	if err != nil {
		respondError(c, h.log, "list_members", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// AddMember adds a user to the project
// POST /api/projects/:id/members
func (h *MembershipHandler) AddMember(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.membershipService.AddMember(projectID, services.AddMemberInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		respondError(c, h.log, "add_member", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project_id": member.ProjectID,
		"user_id":    member.UserID,
		"pivot":      dto.ToPivotDTO(*member),
	})
}

// UpdateMemberRole changes a member's role
// PATCH /api/projects/:id/members/:userId
func (h *MembershipHandler) UpdateMemberRole(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role string `json:"role"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.membershipService.UpdateRole(projectID, userID, req.Role)
	if err != nil {
		respondError(c, h.log, "update_member_role", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": member.ProjectID,
		"user_id":    member.UserID,
		"pivot":      dto.ToPivotDTO(*member),
	})
}

// RemoveMember removes a user from the project
// DELETE /api/projects/:id/members/:userId
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.membershipService.RemoveMember(projectID, userID); err != nil {
		respondError(c, h.log, "remove_member", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// RecordActivity adds contribution hours for the caller
// POST /api/projects/:id/activity
func (h *MembershipHandler) RecordActivity(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	type RecordActivityRequest struct {
		Hours int `json:"hours"`
	}

	var req RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.membershipService.RecordActivity(projectID, userID, req.Hours)
	if err != nil {
		respondError(c, h.log, "record_activity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pivot": dto.ToPivotDTO(*member)})
}
