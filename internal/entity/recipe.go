package entity

import "time"

// DbRecipe is a cooking recipe owned by a single user.
type DbRecipe struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"create_dt"`
	UpdatedAt time.Time `json:"update_dt"`

	UserID uint    `gorm:"column:user_id;index;not null" json:"user_id"`
	User   *DbUser `gorm:"foreignKey:UserID" json:"-"`

	Title       string      `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	TimeMinutes uint        `gorm:"column:time_minutes;not null" json:"time_minutes"`
	Price       uint        `gorm:"column:price;not null" json:"price"`
	Link        string      `gorm:"column:link;type:varchar(255)" json:"link"`
	Photos      StringArray `gorm:"column:photos;type:json" json:"photos"`

	Tags []DbRecipeTag `gorm:"many2many:recipe_tag_links;foreignKey:ID;joinForeignKey:RecipeID;references:ID;joinReferences:TagID" json:"tags"`
}

// TableName overrides default pluralised name.
func (DbRecipe) TableName() string {
	return "recipes"
}

// DbRecipeTag is a user-scoped label for recipes. The slug is derived from
// the name and refreshed on rename.
type DbRecipeTag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint   `gorm:"column:user_id;uniqueIndex:idx_recipe_tag_owner_name;not null" json:"user_id"`
	Name   string `gorm:"column:name;type:varchar(255);uniqueIndex:idx_recipe_tag_owner_name;not null" json:"name"`
	Slug   string `gorm:"column:slug;type:varchar(255)" json:"slug"`

	UsageCount int64 `gorm:"-" json:"usage_count,omitempty"`
}

// TableName overrides default pluralised name.
func (DbRecipeTag) TableName() string {
	return "recipe_tags"
}

// DbRecipeTagLink joins recipes to recipe tags.
type DbRecipeTagLink struct {
	RecipeID  uint      `gorm:"primaryKey" json:"recipe_id"`
	TagID     uint      `gorm:"primaryKey" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides default pluralised name.
func (DbRecipeTagLink) TableName() string {
	return "recipe_tag_links"
}

// RecipeSummary is the representation used in list responses. It omits the
// description; RecipeItem carries it for detail responses.
type RecipeSummary struct {
	ID          uint        `json:"id"`
	User        UserSummary `json:"user"`
	Title       string      `json:"title"`
	TimeMinutes uint        `json:"time_minutes"`
	Price       uint        `json:"price"`
	Link        string      `json:"link"`
	Photos      []Photo     `json:"photos"`
	Tags        []Tag       `json:"tags"`
	CreateDt    time.Time   `json:"create_dt"`
	UpdateDt    time.Time   `json:"update_dt"`
}

// RecipeItem is the full recipe representation.
type RecipeItem struct {
	RecipeSummary
	Description string `json:"description"`
}

// RecipeUpsertRequest is the payload for create and full update.
type RecipeUpsertRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	TimeMinutes *uint            `json:"time_minutes" binding:"required"`
	Price       *uint            `json:"price" binding:"required"`
	Link        string           `json:"link"`
	Tags        *[]TagDescriptor `json:"tags"`
}

// RecipePatchRequest is the payload for partial update.
type RecipePatchRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	TimeMinutes *uint            `json:"time_minutes"`
	Price       *uint            `json:"price"`
	Link        *string          `json:"link"`
	Tags        *[]TagDescriptor `json:"tags"`
}

// RecipeQuery supports listing recipes with pagination.
type RecipeQuery struct {
	BaseParams
	TagIDs []uint `json:"-" form:"-" query:"-"`
}

type RecipeListResponse struct {
	Recipes []RecipeSummary `json:"recipes"`
	Meta    *Meta           `json:"meta"`
}

type RecipeDetailResponse struct {
	Recipe RecipeItem `json:"recipe"`
}
