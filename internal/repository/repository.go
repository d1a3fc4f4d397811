package repository

import (
	"errors"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

var (
	// ErrAlreadyDeleted is returned when soft-deleting a record that already carries a deletion marker.
	ErrAlreadyDeleted = errors.New("record already deleted")
	// ErrNotDeleted is returned when restoring a record that is not soft-deleted.
	ErrNotDeleted = errors.New("record is not deleted")
	// ErrReferenceNotFound is returned when a write references a missing project or user.
	ErrReferenceNotFound = errors.New("referenced record not found")
)

// ListOptions controls soft-delete scoping and pagination for list queries
type ListOptions struct {
	WithDeleted bool
	Pagination  *utils.PaginationParams
}

// TaskFilter holds the optional filters for assigned task queries
type TaskFilter struct {
	Status   *models.TaskStatus
	Priority *models.TaskPriority
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a regular user; is_admin is always stored as false
	Create(user *models.User) error

	// CreatePrivileged creates a user keeping the given is_admin flag (seeding only)
	CreatePrivileged(user *models.User) error

	// FindByID finds an active user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByIDWithDeleted finds a user by ID including soft-deleted rows
	FindByIDWithDeleted(id uint64) (*models.User, error)

	// FindByEmail finds an active user by email
	FindByEmail(email string) (*models.User, error)

	// EmailTaken reports whether any user row, deleted or not, holds the email
	EmailTaken(email string, exceptID uint64) (bool, error)

	// List lists users
	List(opts ListOptions) ([]models.User, int64, error)

	// Update writes the fillable columns of a user
	Update(user *models.User) error

	// SetAdmin sets the is_admin flag (privileged path)
	SetAdmin(id uint64, isAdmin bool) error

	// AdminExists reports whether an admin account exists, soft-deleted or not
	AdminExists() (bool, error)

	// SoftDelete marks a user deleted
	SoftDelete(id uint64) error

	// Restore clears a user's deletion marker
	Restore(id uint64) error

	// HardDelete removes a user together with their tasks and memberships
	HardDelete(id uint64) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and its first membership atomically
	Create(project *models.Project, owner *models.Membership) error

	// FindByID finds an active project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByIDWithDeleted finds a project by ID including soft-deleted rows
	FindByIDWithDeleted(id uint64) (*models.Project, error)

	// List lists projects
	List(opts ListOptions) ([]models.Project, int64, error)

	// Update writes the fillable columns of a project
	Update(project *models.Project) error

	// SoftDelete marks a project deleted; tasks and memberships are left untouched
	SoftDelete(id uint64) error

	// Restore clears a project's deletion marker
	Restore(id uint64) error

	// HardDelete removes a project together with its tasks and memberships
	HardDelete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task after checking its project and users exist
	Create(task *models.Task) error

	// FindByID finds an active task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByIDWithDeleted finds a task by ID including soft-deleted rows
	FindByIDWithDeleted(id uint64) (*models.Task, error)

	// Update writes the fillable columns of a task
	Update(task *models.Task) error

	// SoftDelete marks a task deleted
	SoftDelete(id uint64) error

	// Restore clears a task's deletion marker
	Restore(id uint64) error

	// HardDelete removes a task row
	HardDelete(id uint64) error

	// FilterAssigned lists tasks assigned to a user, ordered by id
	FilterAssigned(userID uint64, filter TaskFilter) ([]models.Task, error)

	// ListCreatedBy lists tasks created by a user
	ListCreatedBy(userID uint64) ([]models.Task, error)

	// ListAssignedInUserProjects lists tasks assigned to a user inside projects they belong to
	ListAssignedInUserProjects(userID uint64) ([]models.Task, error)

	// ListByProject lists the tasks of a project
	ListByProject(projectID uint64) ([]models.Task, error)

	// LatestInProject finds the most recently created task of a project (nil when there is none)
	LatestInProject(projectID uint64) (*models.Task, error)

	// OldestInProject finds the earliest created task of a project (nil when there is none)
	OldestInProject(projectID uint64) (*models.Task, error)

	// HighestPriorityInProject finds the most recently created high priority task of a project (nil when there is none)
	HighestPriorityInProject(projectID uint64) (*models.Task, error)
}

// MembershipRepository defines the interface for project_user data access
type MembershipRepository interface {
	// Add adds a user to a project
	Add(member *models.Membership) error

	// Find finds the membership of a user in an active project
	Find(projectID, userID uint64) (*models.Membership, error)

	// Update writes role, contribution hours and last activity
	Update(member *models.Membership) error

	// AddContribution adds hours and stamps last activity
	AddContribution(projectID, userID uint64, hours int) (*models.Membership, error)

	// Remove removes a user from a project
	Remove(projectID, userID uint64) error

	// ListByProject lists the members of a project with their users
	ListByProject(projectID uint64) ([]models.Membership, error)

	// ListByUser lists the active projects a user belongs to
	ListByUser(userID uint64) ([]models.Membership, error)

	// CountMembers counts how many of the given users belong to a project
	CountMembers(projectID uint64, userIDs []uint64) (int64, error)
}
