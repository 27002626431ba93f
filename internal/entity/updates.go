package entity

import "time"

// UserUpdates holds optional user field changes.
type UserUpdates struct {
	DisplayName  *string
	Role         *string
	PasswordHash *string
	IsActive     *bool
}

// ToMap converts to a GORM updates map.
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	return updates
}

// IsEmpty reports whether no fields are set.
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// CampingUpdates holds optional camping entry field changes.
type CampingUpdates struct {
	Title     *string
	VisitedDt *time.Time
	Review    *string
	Price     *uint
	Photos    *StringArray
}

// ToMap converts to a GORM updates map.
func (u CampingUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.VisitedDt != nil {
		updates["visited_dt"] = *u.VisitedDt
	}
	if u.Review != nil {
		updates["review"] = *u.Review
	}
	if u.Price != nil {
		updates["price"] = *u.Price
	}
	if u.Photos != nil {
		updates["photos"] = *u.Photos
	}
	return updates
}

// IsEmpty reports whether no fields are set.
func (u CampingUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// RecipeUpdates holds optional recipe field changes.
type RecipeUpdates struct {
	Title       *string
	Description *string
	TimeMinutes *uint
	Price       *uint
	Link        *string
	Photos      *StringArray
}

// ToMap converts to a GORM updates map.
func (u RecipeUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.TimeMinutes != nil {
		updates["time_minutes"] = *u.TimeMinutes
	}
	if u.Price != nil {
		updates["price"] = *u.Price
	}
	if u.Link != nil {
		updates["link"] = *u.Link
	}
	if u.Photos != nil {
		updates["photos"] = *u.Photos
	}
	return updates
}

// IsEmpty reports whether no fields are set.
func (u RecipeUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// TagUpdates holds optional tag field changes.
type TagUpdates struct {
	Name *string
	Slug *string
}

// ToMap converts to a GORM updates map.
func (u TagUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Slug != nil {
		updates["slug"] = *u.Slug
	}
	return updates
}

// IsEmpty reports whether no fields are set.
func (u TagUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
