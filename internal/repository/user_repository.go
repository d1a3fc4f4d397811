package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user. The admin flag never travels through this path.
func (r *GormUserRepository) Create(user *models.User) error {
	user.IsAdmin = false
	return r.db.Create(user).Error
}

// CreatePrivileged creates a user with whatever admin flag the caller set
func (r *GormUserRepository) CreatePrivileged(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDWithDeleted finds a user by ID including soft-deleted users
func (r *GormUserRepository) FindByIDWithDeleted(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Unscoped().First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken checks the unique email index including soft-deleted users
func (r *GormUserRepository) EmailTaken(email string, exceptID uint64) (bool, error) {
	var count int64
	query := r.db.Unscoped().Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List lists users ordered by ID
func (r *GormUserRepository) List(opts ListOptions) ([]models.User, int64, error) {
	var users []models.User

	query := scoped(r.db, opts).Model(&models.User{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := paginate(query, opts).Order("id ASC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update writes only the fillable columns
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Model(user).Select(models.UserFillable).Updates(user).Error
}

// SetAdmin sets the admin flag on an active user
func (r *GormUserRepository) SetAdmin(id uint64, isAdmin bool) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdminExists reports whether any admin row exists, soft-deleted ones included
func (r *GormUserRepository) AdminExists() (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SoftDelete marks a user deleted; tasks and memberships stay in place
func (r *GormUserRepository) SoftDelete(id uint64) error {
	return softDelete(r.db, &models.User{}, id)
}

// Restore restores a soft-deleted user
func (r *GormUserRepository) Restore(id uint64) error {
	return restore(r.db, &models.User{}, id)
}

// HardDelete removes a user and all related data in a transaction
func (r *GormUserRepository) HardDelete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.User{}, id); err != nil {
			return err
		}

		// Delete every task the user created or is assigned to
		if err := tx.Unscoped().
			Where("created_by = ? OR assigned_to = ?", id, id).
			Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all memberships
		if err := tx.Where("user_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.User{}, id).Error
	})
}
