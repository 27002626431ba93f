package sql

import (
	"context"
	"fmt"

	"logbook/internal/entity"

	"gorm.io/gorm"
)

// ListCampingTags returns the owner's camping tags with usage counts,
// ordered by name descending.
func (r *GormRepository) ListCampingTags(ctx context.Context, ownerID uint) ([]entity.DbCampingTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	var tags []entity.DbCampingTag
	query := r.db.WithContext(ctx).
		Model(&entity.DbCampingTag{}).
		Scopes(ownedBy(ownerID)).
		Select("camping_tags.*, COUNT(camping_tag_links.camping_id) as usage_count").
		Joins("LEFT JOIN camping_tag_links ON camping_tag_links.tag_id = camping_tags.id").
		Group("camping_tags.id").
		Order("camping_tags.name DESC")

	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetCampingTag loads one of the owner's camping tags.
func (r *GormRepository) GetCampingTag(ctx context.Context, ownerID, id uint) (*entity.DbCampingTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return nil, fmt.Errorf("invalid tag id")
	}

	var tag entity.DbCampingTag
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// CreateCampingTag inserts a new camping tag for its owner.
func (r *GormRepository) CreateCampingTag(ctx context.Context, tag *entity.DbCampingTag) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if tag == nil {
		return fmt.Errorf("tag is nil")
	}
	if tag.UserID == 0 {
		return fmt.Errorf("tag has no owner")
	}
	return r.db.WithContext(ctx).Create(tag).Error
}

// UpdateCampingTag updates one of the owner's camping tags.
func (r *GormRepository) UpdateCampingTag(ctx context.Context, ownerID, id uint, updates entity.TagUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid tag id")
	}
	if updates.IsEmpty() {
		return nil
	}

	var tag entity.DbCampingTag
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).First(&tag, id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&tag).Updates(updates.ToMap()).Error
}

// DeleteCampingTag removes one of the owner's camping tags and its links.
func (r *GormRepository) DeleteCampingTag(ctx context.Context, ownerID, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid tag id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(ownedBy(ownerID)).Delete(&entity.DbCampingTag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("tag_id = ?", id).Delete(&entity.DbCampingTagLink{}).Error
	})
}

// ListRecipeTags returns the owner's recipe tags with usage counts, ordered
// by last update ascending.
func (r *GormRepository) ListRecipeTags(ctx context.Context, ownerID uint) ([]entity.DbRecipeTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	var tags []entity.DbRecipeTag
	query := r.db.WithContext(ctx).
		Model(&entity.DbRecipeTag{}).
		Scopes(ownedBy(ownerID)).
		Select("recipe_tags.*, COUNT(recipe_tag_links.recipe_id) as usage_count").
		Joins("LEFT JOIN recipe_tag_links ON recipe_tag_links.tag_id = recipe_tags.id").
		Group("recipe_tags.id").
		Order("recipe_tags.updated_at ASC")

	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetRecipeTag loads one of the owner's recipe tags.
func (r *GormRepository) GetRecipeTag(ctx context.Context, ownerID, id uint) (*entity.DbRecipeTag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return nil, fmt.Errorf("invalid tag id")
	}

	var tag entity.DbRecipeTag
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// CreateRecipeTag inserts a new recipe tag for its owner.
func (r *GormRepository) CreateRecipeTag(ctx context.Context, tag *entity.DbRecipeTag) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if tag == nil {
		return fmt.Errorf("tag is nil")
	}
	if tag.UserID == 0 {
		return fmt.Errorf("tag has no owner")
	}
	return r.db.WithContext(ctx).Create(tag).Error
}

// UpdateRecipeTag updates one of the owner's recipe tags.
func (r *GormRepository) UpdateRecipeTag(ctx context.Context, ownerID, id uint, updates entity.TagUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid tag id")
	}
	if updates.IsEmpty() {
		return nil
	}

	var tag entity.DbRecipeTag
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).First(&tag, id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&tag).Updates(updates.ToMap()).Error
}

// DeleteRecipeTag removes one of the owner's recipe tags and its links.
func (r *GormRepository) DeleteRecipeTag(ctx context.Context, ownerID, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid tag id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(ownedBy(ownerID)).Delete(&entity.DbRecipeTag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("tag_id = ?", id).Delete(&entity.DbRecipeTagLink{}).Error
	})
}
