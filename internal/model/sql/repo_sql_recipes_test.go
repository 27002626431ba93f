package sql

import (
	"context"
	"errors"
	"testing"

	"logbook/internal/entity"

	"gorm.io/gorm"
)

func createTestRecipe(t *testing.T, repo *GormRepository, ownerID uint, title string, tags []entity.TagDescriptor) *entity.DbRecipe {
	t.Helper()
	recipe := &entity.DbRecipe{
		UserID:      ownerID,
		Title:       title,
		Description: "stir and serve",
		TimeMinutes: 15,
		Price:       20,
	}
	if err := repo.CreateRecipe(context.Background(), recipe, tags); err != nil {
		t.Fatalf("failed to create recipe %s: %v", title, err)
	}
	return recipe
}

func TestRecipeTagGetsSlug(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "cook@example.com")
	ctx := context.Background()

	createTestRecipe(t, repo, user.ID, "Kimchi Stew", []entity.TagDescriptor{{Name: "Comfort Food"}})

	tags, err := repo.ListRecipeTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	if tags[0].Slug != "comfort-food" {
		t.Fatalf("expected slug comfort-food, got %q", tags[0].Slug)
	}
}

func TestRecipeTagReplacement(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "cook@example.com")
	ctx := context.Background()

	recipe := createTestRecipe(t, repo, user.ID, "Kimchi Stew", []entity.TagDescriptor{{Name: "spicy"}, {Name: "korean"}})

	// Replacement is not an additive merge.
	replacement := []entity.TagDescriptor{{Name: "korean"}, {Name: "soup"}}
	if err := repo.UpdateRecipe(ctx, user.ID, recipe.ID, entity.RecipeUpdates{}, &replacement); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := repo.GetRecipe(ctx, user.ID, recipe.ID)
	if err != nil {
		t.Fatalf("failed to load recipe: %v", err)
	}
	if len(loaded.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(loaded.Tags))
	}
	names := map[string]bool{}
	for _, tag := range loaded.Tags {
		names[tag.Name] = true
	}
	if !names["korean"] || !names["soup"] || names["spicy"] {
		t.Fatalf("expected exactly korean+soup, got %v", names)
	}

	// The detached tag row still exists for the owner.
	tags, err := repo.ListRecipeTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("expected 3 tag rows, got %d", len(tags))
	}
}

func TestRecipeScalarUpdateDoesNotTouchTags(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "cook@example.com")
	ctx := context.Background()

	recipe := createTestRecipe(t, repo, user.ID, "Kimchi Stew", []entity.TagDescriptor{{Name: "spicy"}})

	minutes := uint(45)
	if err := repo.UpdateRecipe(ctx, user.ID, recipe.ID, entity.RecipeUpdates{TimeMinutes: &minutes}, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := repo.GetRecipe(ctx, user.ID, recipe.ID)
	if err != nil {
		t.Fatalf("failed to load recipe: %v", err)
	}
	if loaded.TimeMinutes != minutes {
		t.Fatalf("expected %d minutes, got %d", minutes, loaded.TimeMinutes)
	}
	if len(loaded.Tags) != 1 {
		t.Fatalf("expected tag relation untouched, got %d tags", len(loaded.Tags))
	}
}

func TestRecipeForeignAccessIsNotFound(t *testing.T) {
	repo := newTestRepository(t)
	alice := createTestUser(t, repo, "alice@example.com")
	bob := createTestUser(t, repo, "bob@example.com")
	ctx := context.Background()

	recipe := createTestRecipe(t, repo, alice.ID, "Kimchi Stew", nil)

	if _, err := repo.GetRecipe(ctx, bob.ID, recipe.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteRecipe(ctx, bob.ID, recipe.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetRecipe(ctx, alice.ID, recipe.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

func TestRecipeTagRenameRefreshesSlug(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "cook@example.com")
	ctx := context.Background()

	tag := &entity.DbRecipeTag{UserID: user.ID, Name: "Quick Meals", Slug: "quick-meals"}
	if err := repo.CreateRecipeTag(ctx, tag); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Weeknight Meals"
	slug := "weeknight-meals"
	if err := repo.UpdateRecipeTag(ctx, user.ID, tag.ID, entity.TagUpdates{Name: &name, Slug: &slug}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := repo.GetRecipeTag(ctx, user.ID, tag.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Name != name || loaded.Slug != slug {
		t.Fatalf("expected %q/%q, got %q/%q", name, slug, loaded.Name, loaded.Slug)
	}
}
