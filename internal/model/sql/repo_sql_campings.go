package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logbook/internal/entity"

	"gorm.io/gorm"
)

// reconcileCampingTags resolves each descriptor to the owner's tag of the
// same name, creating missing ones inside the caller's transaction. Duplicate
// and blank names collapse; existing tags are never modified. The unique
// (user_id, name) index backstops concurrent creates: a lost race falls back
// to the winner's row.
func (r *GormRepository) reconcileCampingTags(tx *gorm.DB, ownerID uint, descriptors []entity.TagDescriptor) ([]entity.DbCampingTag, error) {
	resolved := make([]entity.DbCampingTag, 0, len(descriptors))
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

		var tag entity.DbCampingTag
		err := tx.Scopes(ownedBy(ownerID)).Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = entity.DbCampingTag{UserID: ownerID, Name: name}
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

// replaceCampingTags rewrites the entry's tag relation to exactly the
// resolved set. An empty set clears the relation.
func replaceCampingTags(tx *gorm.DB, camping *entity.DbCamping, resolved []entity.DbCampingTag) error {
	assoc := tx.Model(camping).Association("Tags")
	if len(resolved) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(resolved)
}

// CreateCamping persists a new camping entry and reconciles its tags in the
// same transaction.
func (r *GormRepository) CreateCamping(ctx context.Context, camping *entity.DbCamping, tags []entity.TagDescriptor) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if camping == nil {
		return fmt.Errorf("camping is nil")
	}
	if camping.UserID == 0 {
		return fmt.Errorf("camping has no owner")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		camping.Tags = nil
		if err := tx.Omit("Tags").Create(camping).Error; err != nil {
			return err
		}

		resolved, err := r.reconcileCampingTags(tx, camping.UserID, tags)
		if err != nil {
			return err
		}
		if len(resolved) > 0 {
			if err := replaceCampingTags(tx, camping, resolved); err != nil {
				return err
			}
		}
		camping.Tags = resolved
		return nil
	})
}

// UpdateCamping applies scalar updates and, when tags is non-nil, rewrites
// the tag relation (a pointer to an empty slice clears it; nil leaves it
// untouched). The lookup is owner-scoped: foreign ids surface as not-found.
func (r *GormRepository) UpdateCamping(ctx context.Context, ownerID, id uint, updates entity.CampingUpdates, tags *[]entity.TagDescriptor) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid camping id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var camping entity.DbCamping
		if err := tx.Scopes(ownedBy(ownerID)).First(&camping, id).Error; err != nil {
			return err
		}

		fields := updates.ToMap()
		if len(fields) > 0 {
			if err := tx.Model(&camping).Updates(fields).Error; err != nil {
				return err
			}
		}

		if tags != nil {
			resolved, err := r.reconcileCampingTags(tx, ownerID, *tags)
			if err != nil {
				return err
			}
			if err := replaceCampingTags(tx, &camping, resolved); err != nil {
				return err
			}
			// Tag-only mutations still refresh updated_at.
			if len(fields) == 0 {
				if err := tx.Model(&camping).Update("updated_at", time.Now().UTC()).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetCamping loads one of the owner's camping entries with its tags.
func (r *GormRepository) GetCamping(ctx context.Context, ownerID, id uint) (*entity.DbCamping, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return nil, fmt.Errorf("invalid camping id")
	}

	var camping entity.DbCamping
	if err := r.db.WithContext(ctx).Scopes(ownedBy(ownerID)).Preload("Tags").First(&camping, id).Error; err != nil {
		return nil, err
	}
	return &camping, nil
}

// ListCampings returns the owner's camping entries, most recently updated
// first.
func (r *GormRepository) ListCampings(ctx context.Context, ownerID uint, params *entity.CampingQuery) ([]entity.DbCamping, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, nil, fmt.Errorf("invalid owner id")
	}

	query := r.db.WithContext(ctx).
		Model(&entity.DbCamping{}).
		Scopes(ownedBy(ownerID)).
		Preload("Tags")

	if params != nil && len(params.TagIDs) > 0 {
		query = query.Joins("JOIN camping_tag_links ON camping_tag_links.camping_id = campings.id").
			Where("camping_tag_links.tag_id IN ?", params.TagIDs).
			Group("campings.id").
			Having("COUNT(DISTINCT camping_tag_links.tag_id) >= ?", len(params.TagIDs))
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

	var campings []entity.DbCamping
	if err := query.Order("updated_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&campings).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return campings, meta, nil
}

// DeleteCamping removes one of the owner's camping entries and its tag
// links. The tags themselves survive.
func (r *GormRepository) DeleteCamping(ctx context.Context, ownerID, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 || id == 0 {
		return fmt.Errorf("invalid camping id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(ownedBy(ownerID)).Delete(&entity.DbCamping{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("camping_id = ?", id).Delete(&entity.DbCampingTagLink{}).Error
	})
}
