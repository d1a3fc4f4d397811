package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and the creator's membership atomically
func (r *GormProjectRepository) Create(project *models.Project, owner *models.Membership) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		if owner == nil {
			return nil
		}

		owner.ProjectID = project.ID
		return tx.Create(owner).Error
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDWithDeleted finds a project by ID including soft-deleted projects
func (r *GormProjectRepository) FindByIDWithDeleted(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Unscoped().First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List lists projects ordered by ID
func (r *GormProjectRepository) List(opts ListOptions) ([]models.Project, int64, error) {
	var projects []models.Project

	query := scoped(r.db, opts).Model(&models.Project{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := paginate(query, opts).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update writes only the fillable columns
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Model(project).Select(models.ProjectFillable).Updates(project).Error
}

// SoftDelete marks a project deleted
func (r *GormProjectRepository) SoftDelete(id uint64) error {
	return softDelete(r.db, &models.Project{}, id)
}

// Restore restores a soft-deleted project
func (r *GormProjectRepository) Restore(id uint64) error {
	return restore(r.db, &models.Project{}, id)
}

// HardDelete removes a project and all related data in a transaction
func (r *GormProjectRepository) HardDelete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Project{}, id); err != nil {
			return err
		}

		// Delete all tasks in the project, including soft-deleted ones
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("project_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Project{}, id).Error
	})
}
