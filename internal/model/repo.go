package model

import (
	"context"

	"logbook/internal/entity"
)

// Repository defines the persistence operations. Every camping/recipe/tag
// method is scoped to an owner: ids belonging to another user behave exactly
// like ids that do not exist.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error

	// Camping entries
	CreateCamping(ctx context.Context, camping *entity.DbCamping, tags []entity.TagDescriptor) error
	UpdateCamping(ctx context.Context, ownerID, id uint, updates entity.CampingUpdates, tags *[]entity.TagDescriptor) error
	GetCamping(ctx context.Context, ownerID, id uint) (*entity.DbCamping, error)
	ListCampings(ctx context.Context, ownerID uint, params *entity.CampingQuery) ([]entity.DbCamping, *entity.Meta, error)
	DeleteCamping(ctx context.Context, ownerID, id uint) error

	// Camping tags
	ListCampingTags(ctx context.Context, ownerID uint) ([]entity.DbCampingTag, error)
	GetCampingTag(ctx context.Context, ownerID, id uint) (*entity.DbCampingTag, error)
	CreateCampingTag(ctx context.Context, tag *entity.DbCampingTag) error
	UpdateCampingTag(ctx context.Context, ownerID, id uint, updates entity.TagUpdates) error
	DeleteCampingTag(ctx context.Context, ownerID, id uint) error

	// Recipes
	CreateRecipe(ctx context.Context, recipe *entity.DbRecipe, tags []entity.TagDescriptor) error
	UpdateRecipe(ctx context.Context, ownerID, id uint, updates entity.RecipeUpdates, tags *[]entity.TagDescriptor) error
	GetRecipe(ctx context.Context, ownerID, id uint) (*entity.DbRecipe, error)
	ListRecipes(ctx context.Context, ownerID uint, params *entity.RecipeQuery) ([]entity.DbRecipe, *entity.Meta, error)
	DeleteRecipe(ctx context.Context, ownerID, id uint) error

	// Recipe tags
	ListRecipeTags(ctx context.Context, ownerID uint) ([]entity.DbRecipeTag, error)
	GetRecipeTag(ctx context.Context, ownerID, id uint) (*entity.DbRecipeTag, error)
	CreateRecipeTag(ctx context.Context, tag *entity.DbRecipeTag) error
	UpdateRecipeTag(ctx context.Context, ownerID, id uint, updates entity.TagUpdates) error
	DeleteRecipeTag(ctx context.Context, ownerID, id uint) error
}
