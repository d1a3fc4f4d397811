package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo    repository.ProjectRepository
	taskRepo       repository.TaskRepository
	membershipRepo repository.MembershipRepository
	log            logrus.FieldLogger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	membershipRepo repository.MembershipRepository,
	log logrus.FieldLogger,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		taskRepo:       taskRepo,
		membershipRepo: membershipRepo,
		log:            log,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	CreatorID   uint64
}

// CreateProject creates a project and makes the creator its manager.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)

	verr := newValidationError()
	validateName(verr, "name", name)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
	}
	owner := &models.Membership{
		UserID: input.CreatorID,
		Role:   models.RoleManager,
	}

	if err := s.projectRepo.Create(project, owner); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "create_project",
		"project_id": project.ID,
		"user_id":    input.CreatorID,
	}).Info("project created")

	return project, nil
}

// ListProjectsForUser returns the memberships of a user with their projects.
func (s *ProjectService) ListProjectsForUser(userID uint64) ([]models.Membership, error) {
	memberships, err := s.membershipRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return memberships, nil
}

// GetProject returns an active project.
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// UpdateProjectInput holds the fillable project fields. Nil means unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// UpdateProject updates a project's fillable fields.
func (s *ProjectService) UpdateProject(projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		verr := newValidationError()
		validateName(verr, "name", name)
		if err := verr.Err(); err != nil {
			return nil, err
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject soft-deletes a project. Tasks and memberships are kept for restore.
func (s *ProjectService) DeleteProject(projectID uint64) error {
	if err := s.projectRepo.SoftDelete(projectID); err != nil {
		return mapDeleteError(err, ErrProjectNotFound)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "delete_project",
		"project_id": projectID,
	}).Info("project soft-deleted")
	return nil
}

// ListTasks returns the active tasks of a project.
func (s *ProjectService) ListTasks(projectID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, nil
}

// LatestTask returns the most recently created task, or nil for an empty project.
func (s *ProjectService) LatestTask(projectID uint64) (*models.Task, error) {
	return s.derivedTask(projectID, s.taskRepo.LatestInProject)
}

// OldestTask returns the earliest created task, or nil for an empty project.
func (s *ProjectService) OldestTask(projectID uint64) (*models.Task, error) {
	return s.derivedTask(projectID, s.taskRepo.OldestInProject)
}

// HighestPriorityTask returns the newest high priority task, or nil when there is none.
func (s *ProjectService) HighestPriorityTask(projectID uint64) (*models.Task, error) {
	return s.derivedTask(projectID, s.taskRepo.HighestPriorityInProject)
}

func (s *ProjectService) derivedTask(projectID uint64, find func(uint64) (*models.Task, error)) (*models.Task, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}

	task, err := find(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project task: %w", err)
	}
	return task, nil
}

// mapDeleteError converts repository soft-delete errors into service errors.
func mapDeleteError(err error, notFound error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, repository.ErrAlreadyDeleted):
		return ErrAlreadyDeleted
	case errors.Is(err, repository.ErrNotDeleted):
		return ErrNotDeleted
	default:
		return fmt.Errorf("failed to change deletion state: %w", err)
	}
}
