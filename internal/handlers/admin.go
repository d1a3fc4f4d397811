package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// AdminHandler serves the routes behind the admin gate
type AdminHandler struct {
	adminService *services.AdminService
	log          logrus.FieldLogger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *services.AdminService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

// ListUsers lists users
// GET /api/admin/users?with_deleted=true&page=1&limit=20
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.adminService.ListUsers(listOptions(c, params))
	if err != nil {
		respondError(c, h.log, "admin_list_users", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params, total))
}

// GrantAdmin gives a user admin access
// POST /api/admin/users/:id/admin
func (h *AdminHandler) GrantAdmin(c *gin.Context) {
	h.setAdmin(c, true)
}

// RevokeAdmin removes a user's admin access
// DELETE /api/admin/users/:id/admin
func (h *AdminHandler) RevokeAdmin(c *gin.Context) {
	h.setAdmin(c, false)
}

func (h *AdminHandler) setAdmin(c *gin.Context, isAdmin bool) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.adminService.SetAdmin(actorID, userID, isAdmin)
	if err != nil {
		respondError(c, h.log, "admin_set_admin", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser soft-deletes a user
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	body, err := deletedMessage("User", h.adminService.DeleteUser(actorID, userID))
	if err != nil {
		respondError(c, h.log, "admin_delete_user", err)
		return
	}

	c.JSON(http.StatusOK, body)
}

// RestoreUser restores a soft-deleted user
// POST /api/admin/users/:id/restore
func (h *AdminHandler) RestoreUser(c *gin.Context) {
	h.run(c, "user", "admin_restore_user", "User restored successfully", h.adminService.RestoreUser)
}

// PurgeUser permanently deletes a user with their tasks and memberships
// DELETE /api/admin/users/:id/force
func (h *AdminHandler) PurgeUser(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	h.run(c, "user", "admin_purge_user", "User permanently deleted", func(userID uint64) error {
		return h.adminService.PurgeUser(actorID, userID)
	})
}

// ListProjects lists projects
// GET /api/admin/projects?with_deleted=true&page=1&limit=20
func (h *AdminHandler) ListProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	projects, total, err := h.adminService.ListProjects(listOptions(c, params))
	if err != nil {
		respondError(c, h.log, "admin_list_projects", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params, total))
}

// RestoreProject restores a soft-deleted project
// POST /api/admin/projects/:id/restore
func (h *AdminHandler) RestoreProject(c *gin.Context) {
	h.run(c, "project", "admin_restore_project", "Project restored successfully", h.adminService.RestoreProject)
}

// PurgeProject permanently deletes a project with its tasks and memberships
// DELETE /api/admin/projects/:id/force
func (h *AdminHandler) PurgeProject(c *gin.Context) {
	h.run(c, "project", "admin_purge_project", "Project permanently deleted", h.adminService.PurgeProject)
}

// RestoreTask restores a soft-deleted task
// POST /api/admin/tasks/:id/restore
func (h *AdminHandler) RestoreTask(c *gin.Context) {
	h.run(c, "task", "admin_restore_task", "Task restored successfully", h.adminService.RestoreTask)
}

// PurgeTask permanently deletes a task
// DELETE /api/admin/tasks/:id/force
func (h *AdminHandler) PurgeTask(c *gin.Context) {
	h.run(c, "task", "admin_purge_task", "Task permanently deleted", h.adminService.PurgeTask)
}

func (h *AdminHandler) run(c *gin.Context, label, operation, message string, action func(uint64) error) {
	id, ok := parseIDParam(c, "id", label)
	if !ok {
		return
	}

	if err := action(id); err != nil {
		respondError(c, h.log, operation, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func listOptions(c *gin.Context, params utils.PaginationParams) repository.ListOptions {
	withDeleted, _ := strconv.ParseBool(c.Query("with_deleted"))
	return repository.ListOptions{
		WithDeleted: withDeleted,
		Pagination:  &params,
	}
}
