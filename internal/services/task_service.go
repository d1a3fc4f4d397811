package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrTaskPermissionDenied = errors.New("only the task creator or a project manager can delete this task")

// TaskService handles task business logic
type TaskService struct {
	taskRepo       repository.TaskRepository
	membershipRepo repository.MembershipRepository
	log            logrus.FieldLogger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, membershipRepo repository.MembershipRepository, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		taskRepo:       taskRepo,
		membershipRepo: membershipRepo,
		log:            log,
	}
}

// FilterAssignedTasks returns the tasks assigned to a user, optionally
// narrowed by status and priority. Empty strings mean no filter.
func (s *TaskService) FilterAssignedTasks(userID uint64, status, priority string) ([]models.Task, error) {
	var filter repository.TaskFilter
	verr := newValidationError()

	if status != "" {
		st := models.TaskStatus(status)
		if !st.Valid() {
			verr.Add("status", "must be one of new, in_progress, completed")
		}
		filter.Status = &st
	}
	if priority != "" {
		pr := models.TaskPriority(priority)
		if !pr.Valid() {
			verr.Add("priority", "must be one of low, medium, high")
		}
		filter.Priority = &pr
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.FilterAssigned(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter tasks: %w", err)
	}
	return tasks, nil
}

// ListCreatedTasks returns the tasks a user created
func (s *TaskService) ListCreatedTasks(userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListCreatedBy(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created tasks: %w", err)
	}
	return tasks, nil
}

// ListMyProjectTasks returns the tasks assigned to a user across their projects
func (s *TaskService) ListMyProjectTasks(userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListAssignedInUserProjects(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	CreatorID   uint64
	AssignedTo  uint64
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string
	Notes       *string
}

// CreateTask validates the input and creates the task. Creator and assignee
// must both belong to the project.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)

	verr := newValidationError()
	validateTitle(verr, title)
	status := models.TaskStatusNew
	if input.Status != "" {
		status = models.TaskStatus(input.Status)
		if !status.Valid() {
			verr.Add("status", "must be one of new, in_progress, completed")
		}
	}
	priority := models.TaskPriority(input.Priority)
	if input.Priority == "" {
		verr.Add("priority", "is required")
	} else if !priority.Valid() {
		verr.Add("priority", "must be one of low, medium, high")
	}
	dueDate, _ := parseDueDate(verr, input.DueDate)
	if input.AssignedTo == 0 {
		verr.Add("assigned_to", "is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureMembers(input.ProjectID, input.CreatorID, input.AssignedTo); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   input.ProjectID,
		CreatedBy:   input.CreatorID,
		AssignedTo:  input.AssignedTo,
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		Notes:       input.Notes,
	}

	if err := s.taskRepo.Create(task); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "create_task",
		"task_id":    task.ID,
		"project_id": task.ProjectID,
	}).Info("task created")

	return task, nil
}

// GetTask returns a task the user can see through their project membership
func (s *TaskService) GetTask(taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if _, err := s.findMember(task.ProjectID, userID); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTaskInput represents the fillable task fields. Nil means unchanged.
type UpdateTaskInput struct {
	AssignedTo  *uint64
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	Notes       *string
	ClearNotes  bool
}

// UpdateTask updates the allow-listed fields of a task
func (s *TaskService) UpdateTask(taskID, userID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	verr := newValidationError()
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		validateTitle(verr, title)
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = models.TaskStatus(*input.Status)
		if !task.Status.Valid() {
			verr.Add("status", "must be one of new, in_progress, completed")
		}
	}
	if input.Priority != nil {
		task.Priority = models.TaskPriority(*input.Priority)
		if !task.Priority.Valid() {
			verr.Add("priority", "must be one of low, medium, high")
		}
	}
	if input.DueDate != nil {
		if dueDate, ok := parseDueDate(verr, *input.DueDate); ok {
			task.DueDate = dueDate
		}
	}
	if input.ClearNotes {
		task.Notes = nil
	} else if input.Notes != nil {
		task.Notes = input.Notes
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if input.AssignedTo != nil && *input.AssignedTo != task.AssignedTo {
		if err := s.ensureMembers(task.ProjectID, *input.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = *input.AssignedTo
		task.Assignee = models.User{}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// DeleteTask soft-deletes a task. Deleting an already deleted task reports
// ErrAlreadyDeleted and keeps the original deletion time.
func (s *TaskService) DeleteTask(taskID, userID uint64) error {
	task, err := s.taskRepo.FindByIDWithDeleted(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	member, err := s.findMember(task.ProjectID, userID)
	if err != nil {
		return err
	}
	if task.CreatedBy != userID && member.Role != models.RoleManager {
		return ErrTaskPermissionDenied
	}

	if task.DeletedAt.Valid {
		return ErrAlreadyDeleted
	}

	if err := s.taskRepo.SoftDelete(taskID); err != nil {
		return mapDeleteError(err, ErrTaskNotFound)
	}

	s.log.WithFields(logrus.Fields{
		"operation": "delete_task",
		"task_id":   taskID,
	}).Info("task soft-deleted")
	return nil
}

func (s *TaskService) findMember(projectID, userID uint64) (*models.Membership, error) {
	member, err := s.membershipRepo.Find(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectMember
		}
		return nil, fmt.Errorf("failed to verify project membership: %w", err)
	}
	return member, nil
}

// ensureMembers checks every user belongs to the project
func (s *TaskService) ensureMembers(projectID uint64, userIDs ...uint64) error {
	ids := uniqueUint64(userIDs)

	count, err := s.membershipRepo.CountMembers(projectID, ids)
	if err != nil {
		return fmt.Errorf("failed to verify project members: %w", err)
	}
	if int(count) != len(ids) {
		verr := newValidationError()
		verr.Add("assigned_to", "must be a member of the project")
		return verr
	}
	return nil
}

func parseDueDate(verr *ValidationError, raw string) (datatypes.Date, bool) {
	if raw == "" {
		verr.Add("due_date", "is required")
		return datatypes.Date{}, false
	}
	parsed, err := time.Parse(constants.DateLayout, raw)
	if err != nil {
		verr.Add("due_date", "must be a date in YYYY-MM-DD format")
		return datatypes.Date{}, false
	}
	return datatypes.Date(parsed), true
}

func validateTitle(verr *ValidationError, title string) {
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > constants.MaxTitleLength:
		verr.Add("title", fmt.Sprintf("must be at most %d characters", constants.MaxTitleLength))
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
