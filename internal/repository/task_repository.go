package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create checks the referenced project and users and inserts the task in one transaction
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var projects int64
		if err := tx.Model(&models.Project{}).Where("id = ?", task.ProjectID).Count(&projects).Error; err != nil {
			return err
		}
		if projects == 0 {
			return fmt.Errorf("%w: project %d", ErrReferenceNotFound, task.ProjectID)
		}

		userIDs := []uint64{task.CreatedBy}
		if task.AssignedTo != task.CreatedBy {
			userIDs = append(userIDs, task.AssignedTo)
		}

		var users int64
		if err := tx.Model(&models.User{}).Where("id IN ?", userIDs).Count(&users).Error; err != nil {
			return err
		}
		if int(users) != len(userIDs) {
			return fmt.Errorf("%w: user", ErrReferenceNotFound)
		}

		return tx.Omit(clause.Associations).Create(task).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDWithDeleted finds a task by ID including soft-deleted tasks
func (r *GormTaskRepository) FindByIDWithDeleted(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Unscoped().First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update writes only the fillable columns
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).Select(models.TaskFillable).Updates(task).Error
}

// SoftDelete marks a task deleted
func (r *GormTaskRepository) SoftDelete(id uint64) error {
	return softDelete(r.db, &models.Task{}, id)
}

// Restore restores a soft-deleted task
func (r *GormTaskRepository) Restore(id uint64) error {
	return restore(r.db, &models.Task{}, id)
}

// HardDelete permanently removes a task
func (r *GormTaskRepository) HardDelete(id uint64) error {
	result := r.db.Unscoped().Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FilterAssigned lists tasks assigned to a user with optional status and priority filters
func (r *GormTaskRepository) FilterAssigned(userID uint64, filter TaskFilter) ([]models.Task, error) {
	query := r.db.Model(&models.Task{}).Where("tasks.assigned_to = ?", userID)

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}

	var tasks []models.Task
	if err := query.Order("tasks.id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListCreatedBy lists tasks created by a user
func (r *GormTaskRepository) ListCreatedBy(userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("created_by = ?", userID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssignedInUserProjects lists tasks assigned to a user across the active projects they belong to
func (r *GormTaskRepository) ListAssignedInUserProjects(userID uint64) ([]models.Task, error) {
	memberProjects := r.db.Model(&models.Membership{}).
		Select("project_user.project_id").
		Joins(activeProjectJoin).
		Where("project_user.user_id = ?", userID)

	var tasks []models.Task
	if err := r.db.
		Where("tasks.assigned_to = ?", userID).
		Where("tasks.project_id IN (?)", memberProjects).
		Order("tasks.id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByProject lists the tasks of a project
func (r *GormTaskRepository) ListByProject(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("project_id = ?", projectID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// LatestInProject returns the task with the greatest created_at
func (r *GormTaskRepository) LatestInProject(projectID uint64) (*models.Task, error) {
	return r.firstInProject(r.db.Where("project_id = ?", projectID), "created_at DESC, id DESC")
}

// OldestInProject returns the task with the smallest created_at
func (r *GormTaskRepository) OldestInProject(projectID uint64) (*models.Task, error) {
	return r.firstInProject(r.db.Where("project_id = ?", projectID), "created_at ASC, id ASC")
}

// HighestPriorityInProject returns the newest high priority task
func (r *GormTaskRepository) HighestPriorityInProject(projectID uint64) (*models.Task, error) {
	query := r.db.Where("project_id = ? AND priority = ?", projectID, models.PriorityHigh)
	return r.firstInProject(query, "created_at DESC, id DESC")
}

func (r *GormTaskRepository) firstInProject(query *gorm.DB, order string) (*models.Task, error) {
	var task models.Task
	err := query.Order(order).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}
