package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// AdminService holds the privileged operations behind the admin gate and
// the seeding path.
type AdminService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	log         logrus.FieldLogger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	log logrus.FieldLogger,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		log:         log,
	}
}

// ListUsers lists users, optionally including soft-deleted ones.
func (s *AdminService) ListUsers(opts repository.ListOptions) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SetAdmin grants or revokes admin access. Admins cannot revoke their own access.
func (s *AdminService) SetAdmin(actorID, userID uint64, isAdmin bool) (*models.User, error) {
	if actorID == userID && !isAdmin {
		return nil, ErrSelfDemotion
	}

	if err := s.userRepo.SetAdmin(userID, isAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update admin flag: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation": "set_admin",
		"actor_id":  actorID,
		"user_id":   userID,
		"is_admin":  isAdmin,
	}).Warn("admin flag changed")

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return user, nil
}

// DeleteUser soft-deletes a user.
func (s *AdminService) DeleteUser(actorID, userID uint64) error {
	if actorID == userID {
		return ErrSelfDeletion
	}
	if err := s.userRepo.SoftDelete(userID); err != nil {
		return mapDeleteError(err, ErrUserNotFound)
	}
	s.logAdmin("delete_user", "user_id", userID)
	return nil
}

// RestoreUser clears a user's deletion marker.
func (s *AdminService) RestoreUser(userID uint64) error {
	if err := s.userRepo.Restore(userID); err != nil {
		return mapDeleteError(err, ErrUserNotFound)
	}
	s.logAdmin("restore_user", "user_id", userID)
	return nil
}

// PurgeUser permanently removes a user with their tasks and memberships.
func (s *AdminService) PurgeUser(actorID, userID uint64) error {
	if actorID == userID {
		return ErrSelfDeletion
	}
	if err := s.userRepo.HardDelete(userID); err != nil {
		return mapDeleteError(err, ErrUserNotFound)
	}
	s.logAdmin("purge_user", "user_id", userID)
	return nil
}

// ListProjects lists projects, optionally including soft-deleted ones.
func (s *AdminService) ListProjects(opts repository.ListOptions) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// RestoreProject clears a project's deletion marker.
func (s *AdminService) RestoreProject(projectID uint64) error {
	if err := s.projectRepo.Restore(projectID); err != nil {
		return mapDeleteError(err, ErrProjectNotFound)
	}
	s.logAdmin("restore_project", "project_id", projectID)
	return nil
}

// PurgeProject permanently removes a project with its tasks and memberships.
func (s *AdminService) PurgeProject(projectID uint64) error {
	if err := s.projectRepo.HardDelete(projectID); err != nil {
		return mapDeleteError(err, ErrProjectNotFound)
	}
	s.logAdmin("purge_project", "project_id", projectID)
	return nil
}

// RestoreTask clears a task's deletion marker.
func (s *AdminService) RestoreTask(taskID uint64) error {
	if err := s.taskRepo.Restore(taskID); err != nil {
		return mapDeleteError(err, ErrTaskNotFound)
	}
	s.logAdmin("restore_task", "task_id", taskID)
	return nil
}

// PurgeTask permanently removes a task.
func (s *AdminService) PurgeTask(taskID uint64) error {
	if err := s.taskRepo.HardDelete(taskID); err != nil {
		return mapDeleteError(err, ErrTaskNotFound)
	}
	s.logAdmin("purge_task", "task_id", taskID)
	return nil
}

// SeedAdminInput holds the bootstrap admin account.
type SeedAdminInput struct {
	Name     string
	Email    string
	Password string
}

// SeedAdmin creates the initial admin through the privileged path. It
// returns ErrAdminExists when an admin is already present.
func (s *AdminService) SeedAdmin(input SeedAdminInput) (*models.User, error) {
	exists, err := s.userRepo.AdminExists()
	if err != nil {
		return nil, fmt.Errorf("failed to check for admin: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	verr := newValidationError()
	validateName(verr, "name", name)
	validateEmail(verr, email)
	if len(input.Password) < constants.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      true,
	}
	if err := s.userRepo.CreatePrivileged(admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logAdmin("seed_admin", "user_id", admin.ID)
	return admin, nil
}

func (s *AdminService) logAdmin(operation, key string, id uint64) {
	s.log.WithFields(logrus.Fields{
		"operation": operation,
		key:         id,
	}).Info("admin operation completed")
}
