package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/database"
	"gorm.io/gorm"
)

// softDelete stamps deleted_at on an active row. A second call reports
// ErrAlreadyDeleted and leaves the original marker in place.
func softDelete(db *gorm.DB, model interface{}, id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, model, id); err != nil {
			return err
		}

		result := tx.Delete(model, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyDeleted
		}
		return nil
	})
}

// restore clears deleted_at on a soft-deleted row.
func restore(db *gorm.DB, model interface{}, id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, model, id); err != nil {
			return err
		}

		result := tx.Unscoped().Model(model).
			Where("id = ? AND deleted_at IS NOT NULL", id).
			UpdateColumn("deleted_at", nil)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotDeleted
		}
		return nil
	})
}

func ensureExists(tx *gorm.DB, model interface{}, id uint64) error {
	var count int64
	if err := tx.Unscoped().Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func scoped(db *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.WithDeleted {
		db = db.Unscoped()
	}
	return db
}

func paginate(db *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.Pagination != nil {
		db = db.Scopes(database.Paginate(*opts.Pagination))
	}
	return db
}
