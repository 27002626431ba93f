package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logbook/internal/entity"
	"logbook/internal/utils"

	"gorm.io/gorm"
)

// reconcileRecipeTags mirrors reconcileCampingTags for recipe tags. Newly
// created tags get a slug derived from the name; resolution itself is by
// name only.
func (r *GormRepository) reconcileRecipeTags(tx *gorm.DB, ownerID uint, descriptors []entity.TagDescriptor) ([]entity.DbRecipeTag, error) {
	resolved := make([]entity.DbRecipeTag, 0, len(descriptors))
	seen := make(map[string]struct{}, len(descriptors))

	for _, descriptor := range descriptors {
		name := strings.TrimSpace(descriptor.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var tag entity.DbRecipeTag
		err := tx.Scopes(ownedBy(ownerID)).Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = entity.DbRecipeTag{UserID: ownerID, Name: name, Slug: utils.Slugify(name)}
			if createErr := tx.Create(&tag).Error; createErr != nil {
				if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
					return nil, createErr
				}
				if err := tx.Scopes(ownedBy(ownerID)).Where("name = ?", name).First(&tag).Error; err != nil {
					return nil, err
				}
			}
		} else if err != nil {
			return nil, err
		}

		resolved = append(resolved, tag)
	}

	return resolved, nil
}

func replaceRecipeTags(tx *gorm.DB, recipe *entity.DbRecipe, resolved []entity.DbRecipeTag) error {
	assoc := tx.Model(recipe).Association("Tags")
	if len(resolved) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(resolved)
}

// CreateRecipe persists a new recipe and reconciles its tags in the same
// transaction.
func (r *GormRepository) CreateRecipe(ctx context.Context, recipe *entity.DbRecipe, tags []entity.TagDescriptor) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if recipe == nil {
		return fmt.Errorf("recipe is nil")
	}
	if recipe.UserID == 0 {
		return fmt.Errorf("recipe has no owner")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe.Tags = nil
		if err := tx.Omit("Tags").Create(recipe).Error; err != nil {
			return err
		}

		resolved, err := r.reconcileRecipeTags(tx, recipe.UserID, tags)
		if err != nil {
			return err
		}
		if len(resolved) > 0 {
			if err := replaceRecipeTags(tx, recipe, resolved); err != nil {
				return err
			}
		}
		recipe.Tags = resolved
		return nil
	})
}

// UpdateRecipe applies scalar updates and, when tags is non-nil, rewrites
// the tag relation. Owner-scoped like every recipe access.
func (r *GormRepository) UpdateRecipe(ctx context.Context, ownerID, id uint, updates entity.RecipeUpdates, tags *[]entity.TagDescriptor) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid recipe id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe entity.DbRecipe
		if err := tx.Scopes(ownedBy(ownerID)).First(&recipe, id).Error; err != nil {
			return err
		}

		fields := updates.ToMap()
		if len(fields) > 0 {
			if err := tx.Model(&recipe).Updates(fields).Error; err != nil {
				return err
			}
		}

		if tags != nil {
			resolved, err := r.reconcileRecipeTags(tx, ownerID, *tags)
			if err != nil {
				return err
			}
			if err := replaceRecipeTags(tx, &recipe, resolved); err != nil {
				return err
			}
			// Tag-only mutations still refresh updated_at.
			if len(fields) == 0 {
				if err := tx.Model(&recipe).Update("updated_at", time.Now().UTC()).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetRecipe loads one of the owner's recipes with its tags and owner.
func (r *GormRepository) GetRecipe(ctx context.Context, ownerID, id uint) (*entity.DbRecipe, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return nil, fmt.Errorf("invalid recipe id")
	}

	var recipe entity.DbRecipe
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).Preload("Tags").Preload("User").First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns the owner's recipes, most recently updated first.
func (r *GormRepository) ListRecipes(ctx context.Context, ownerID uint, params *entity.RecipeQuery) ([]entity.DbRecipe, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, nil, fmt.Errorf("invalid owner id")
	}

	query := r.db.WithContext(ctx).
		Model(&entity.DbRecipe{}).
		Scopes(ownedBy(ownerID)).
		Preload("Tags").
		Preload("User")

	if params != nil && len(params.TagIDs) > 0 {
		query = query.Joins("JOIN recipe_tag_links ON recipe_tag_links.recipe_id = recipes.id").
			Where("recipe_tag_links.tag_id IN ?", params.TagIDs).
			Group("recipes.id").
			Having("COUNT(DISTINCT recipe_tag_links.tag_id) >= ?", len(params.TagIDs))
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var base *entity.BaseParams
	if params != nil {
		base = &params.BaseParams
	}
	page, pageSize := normalisePage(base)
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var recipes []entity.DbRecipe
	if err := query.Order("updated_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&recipes).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return recipes, meta, nil
}

// DeleteRecipe removes one of the owner's recipes and its tag links. The
// tags themselves survive.
func (r *GormRepository) DeleteRecipe(ctx context.Context, ownerID, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid recipe id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(ownedBy(ownerID)).Delete(&entity.DbRecipe{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("recipe_id = ?", id).Delete(&entity.DbRecipeTagLink{}).Error
	})
}
