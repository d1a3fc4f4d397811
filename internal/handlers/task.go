package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *services.TaskService
	log         logrus.FieldLogger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// FilterAssignedTasks lists tasks assigned to the caller
// GET /api/tasks/assigned?status=&priority=
func (h *TaskHandler) FilterAssignedTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.FilterAssignedTasks(userID, c.Query("status"), c.Query("priority"))
	if err != nil {
		respondError(c, h.log, "filter_assigned_tasks", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// ListCreatedTasks lists tasks the caller created
// GET /api/tasks/created
func (h *TaskHandler) ListCreatedTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListCreatedTasks(userID)
	if err != nil {
		respondError(c, h.log, "list_created_tasks", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// ListMyProjectTasks lists tasks assigned to the caller across their projects
// GET /api/tasks/mine
func (h *TaskHandler) ListMyProjectTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListMyProjectTasks(userID)
	if err != nil {
		respondError(c, h.log, "list_my_project_tasks", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// CreateTask creates a task in a project
// POST /api/projects/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		AssignedTo  uint64  `json:"assigned_to"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Priority    string  `json:"priority"`
		DueDate     string  `json:"due_date"`
		Notes       *string `json:"notes"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ProjectID:   projectID,
		CreatorID:   userID,
		AssignedTo:  req.AssignedTo,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, h.log, "create_task", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task
// GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		respondError(c, h.log, "get_task", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask updates the allow-listed fields of a task
// PATCH /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id", "task")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		AssignedTo  *uint64 `json:"assigned_to"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		DueDate     *string `json:"due_date"`
		Notes       *string `json:"notes"`
		ClearNotes  bool    `json:"clear_notes"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, userID, services.UpdateTaskInput{
		AssignedTo:  req.AssignedTo,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
		ClearNotes:  req.ClearNotes,
	})
	if err != nil {
		respondError(c, h.log, "update_task", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask soft-deletes a task. Repeating the call reports it as already deleted.
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id", "task")
	if !ok {
		return
	}

	body, err := deletedMessage("Task", h.taskService.DeleteTask(taskID, userID))
	if err != nil {
		respondError(c, h.log, "delete_task", err)
		return
	}

	c.JSON(http.StatusOK, body)
}
