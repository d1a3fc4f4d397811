package repository

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

const activeProjectJoin = "JOIN projects ON projects.id = project_user.project_id AND projects.deleted_at IS NULL"

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Add adds a member to a project
func (r *GormMembershipRepository) Add(member *models.Membership) error {
	return r.db.Create(member).Error
}

// Find finds a membership, ignoring projects that were soft-deleted
func (r *GormMembershipRepository) Find(projectID, userID uint64) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.Joins(activeProjectJoin).
		Where("project_user.project_id = ? AND project_user.user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// Update writes the pivot columns of a membership
func (r *GormMembershipRepository) Update(member *models.Membership) error {
	return r.db.Model(member).
		Select("role", "contribution_hours", "last_activity").
		Updates(member).Error
}

// AddContribution increments contribution hours and stamps last activity
func (r *GormMembershipRepository) AddContribution(projectID, userID uint64, hours int) (*models.Membership, error) {
	var member models.Membership
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Joins(activeProjectJoin).
			Where("project_user.project_id = ? AND project_user.user_id = ?", projectID, userID).
			First(&member).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&member).Updates(map[string]interface{}{
			"contribution_hours": gorm.Expr("contribution_hours + ?", hours),
			"last_activity":      now,
		}).Error; err != nil {
			return err
		}

		return tx.First(&member, member.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Remove removes a member from a project
func (r *GormMembershipRepository) Remove(projectID, userID uint64) error {
	result := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProject lists all members of a project
func (r *GormMembershipRepository) ListByProject(projectID uint64) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Preload("User").
		Joins("JOIN users ON users.id = project_user.user_id AND users.deleted_at IS NULL").
		Where("project_user.project_id = ?", projectID).
		Order("project_user.id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListByUser lists all active projects a user is a member of
func (r *GormMembershipRepository) ListByUser(userID uint64) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("Project").
		Joins(activeProjectJoin).
		Where("project_user.user_id = ?", userID).
		Order("project_user.project_id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountMembers counts how many of the given users are members of the project
func (r *GormMembershipRepository) CountMembers(projectID uint64, userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Joins("JOIN users ON users.id = project_user.user_id AND users.deleted_at IS NULL").
		Where("project_user.project_id = ? AND project_user.user_id IN ?", projectID, userIDs).
		Count(&count).Error
	return count, err
}
