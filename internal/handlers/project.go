package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	projectService    *services.ProjectService
	membershipService *services.MembershipService
	log               logrus.FieldLogger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *services.ProjectService, membershipService *services.MembershipService, log logrus.FieldLogger) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		membershipService: membershipService,
		log:               log,
	}
}

// CreateProject creates a project with the caller as manager
// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	})
	if err != nil {
		respondError(c, h.log, "create_project", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects lists the caller's projects with their membership data
// GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	memberships, err := h.projectService.ListProjectsForUser(userID)
	if err != nil {
		respondError(c, h.log, "list_projects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectWithPivotDTOs(memberships)})
}

// GetProject returns a project
// GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(projectID)
	if err != nil {
		respondError(c, h.log, "get_project", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject updates the name and description
// PATCH /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, "update_project", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject soft-deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	body, err := deletedMessage("Project", h.projectService.DeleteProject(projectID))
	if err != nil {
		respondError(c, h.log, "delete_project", err)
		return
	}

	c.JSON(http.StatusOK, body)
}

// ListProjectTasks lists the tasks of a project
// GET /api/projects/:id/tasks
func (h *ProjectHandler) ListProjectTasks(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	tasks, err := h.projectService.ListTasks(projectID)
	if err != nil {
		respondError(c, h.log, "list_project_tasks", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// LatestTask returns the most recently created task
// GET /api/projects/:id/tasks/latest
func (h *ProjectHandler) LatestTask(c *gin.Context) {
	h.derivedTask(c, "latest_task", h.projectService.LatestTask)
}

// OldestTask returns the earliest created task
// GET /api/projects/:id/tasks/oldest
func (h *ProjectHandler) OldestTask(c *gin.Context) {
	h.derivedTask(c, "oldest_task", h.projectService.OldestTask)
}

// HighestPriorityTask returns the newest high priority task
// GET /api/projects/:id/tasks/highest-priority
func (h *ProjectHandler) HighestPriorityTask(c *gin.Context) {
	h.derivedTask(c, "highest_priority_task", h.projectService.HighestPriorityTask)
}

func (h *ProjectHandler) derivedTask(c *gin.Context, operation string, find func(uint64) (*models.Task, error)) {
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	task, err := find(projectID)
	if err != nil {
		respondError(c, h.log, operation, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDerivedTaskResponse(task))
}

// MyRole returns the caller's role in the project
// GET /api/projects/:id/role
func (h *ProjectHandler) MyRole(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	role, err := h.membershipService.GetRoleForProject(userID, projectID)
	if err != nil {
		respondError(c, h.log, "get_role_for_project", err)
		return
	}

	c.JSON(http.StatusOK, dto.RoleResponse{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	})
}
