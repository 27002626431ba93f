package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"logbook/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.DbUser{},
		&entity.DbCamping{},
		&entity.DbCampingTag{},
		&entity.DbCampingTagLink{},
		&entity.DbRecipe{},
		&entity.DbRecipeTag{},
		&entity.DbRecipeTagLink{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return NewGormRepository(db)
}

func createTestUser(t *testing.T, repo *GormRepository, email string) *entity.DbUser {
	t.Helper()
	user := &entity.DbUser{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func createTestCamping(t *testing.T, repo *GormRepository, ownerID uint, title string, tags []entity.TagDescriptor) *entity.DbCamping {
	t.Helper()
	camping := &entity.DbCamping{
		UserID:    ownerID,
		Title:     title,
		VisitedDt: time.Now().UTC(),
		Review:    "a fine spot",
		Price:     100,
	}
	if err := repo.CreateCamping(context.Background(), camping, tags); err != nil {
		t.Fatalf("failed to create camping %s: %v", title, err)
	}
	return camping
}

func campingTagNames(camping *entity.DbCamping) []string {
	names := make([]string, 0, len(camping.Tags))
	for _, tag := range camping.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestCreateCampingResolvesTags(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")

	camping := createTestCamping(t, repo, user.ID, "Lakeside", []entity.TagDescriptor{
		{Name: "summer"},
		{Name: "lake"},
		{Name: "summer"}, // duplicate collapses
		{Name: "  "},     // blank skipped
	})

	loaded, err := repo.GetCamping(context.Background(), user.ID, camping.ID)
	if err != nil {
		t.Fatalf("failed to load camping: %v", err)
	}
	if len(loaded.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d (%v)", len(loaded.Tags), campingTagNames(loaded))
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	descriptors := []entity.TagDescriptor{{Name: "summer"}, {Name: "lake"}}
	camping := createTestCamping(t, repo, user.ID, "Lakeside", descriptors)

	for i := 0; i < 2; i++ {
		if err := repo.UpdateCamping(ctx, user.ID, camping.ID, entity.CampingUpdates{}, &descriptors); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	loaded, err := repo.GetCamping(ctx, user.ID, camping.ID)
	if err != nil {
		t.Fatalf("failed to load camping: %v", err)
	}
	if len(loaded.Tags) != 2 {
		t.Fatalf("expected 2 tags after repeated reconcile, got %d", len(loaded.Tags))
	}

	tags, err := repo.ListCampingTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tag rows, got %d", len(tags))
	}
}

func TestEmptyTagListClearsRelation(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	camping := createTestCamping(t, repo, user.ID, "Lakeside", []entity.TagDescriptor{{Name: "summer"}})

	empty := []entity.TagDescriptor{}
	if err := repo.UpdateCamping(ctx, user.ID, camping.ID, entity.CampingUpdates{}, &empty); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := repo.GetCamping(ctx, user.ID, camping.ID)
	if err != nil {
		t.Fatalf("failed to load camping: %v", err)
	}
	if len(loaded.Tags) != 0 {
		t.Fatalf("expected tags cleared, got %v", campingTagNames(loaded))
	}

	// The orphaned tag itself survives.
	tags, err := repo.ListCampingTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "summer" {
		t.Fatalf("expected orphan tag to persist, got %v", tags)
	}
}

func TestNilTagsLeavesRelationUntouched(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	camping := createTestCamping(t, repo, user.ID, "Lakeside", []entity.TagDescriptor{{Name: "summer"}})

	title := "Renamed"
	if err := repo.UpdateCamping(ctx, user.ID, camping.ID, entity.CampingUpdates{Title: &title}, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := repo.GetCamping(ctx, user.ID, camping.ID)
	if err != nil {
		t.Fatalf("failed to load camping: %v", err)
	}
	if loaded.Title != title {
		t.Fatalf("expected title %q, got %q", title, loaded.Title)
	}
	if len(loaded.Tags) != 1 {
		t.Fatalf("expected tag relation untouched, got %v", campingTagNames(loaded))
	}
}

func TestTagNamesAreScopedPerOwner(t *testing.T) {
	repo := newTestRepository(t)
	alice := createTestUser(t, repo, "alice@example.com")
	bob := createTestUser(t, repo, "bob@example.com")
	ctx := context.Background()

	createTestCamping(t, repo, alice.ID, "Lakeside", []entity.TagDescriptor{{Name: "summer"}})
	createTestCamping(t, repo, bob.ID, "Hillside", []entity.TagDescriptor{{Name: "summer"}})

	aliceTags, err := repo.ListCampingTags(ctx, alice.ID)
	if err != nil {
		t.Fatalf("failed to list alice tags: %v", err)
	}
	bobTags, err := repo.ListCampingTags(ctx, bob.ID)
	if err != nil {
		t.Fatalf("failed to list bob tags: %v", err)
	}

	if len(aliceTags) != 1 || len(bobTags) != 1 {
		t.Fatalf("expected one tag per user, got %d and %d", len(aliceTags), len(bobTags))
	}
	if aliceTags[0].ID == bobTags[0].ID {
		t.Fatal("expected distinct tag rows for distinct owners")
	}
}

func TestDeleteCampingKeepsTags(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	camping := createTestCamping(t, repo, user.ID, "Lakeside", []entity.TagDescriptor{{Name: "summer"}})

	if err := repo.DeleteCamping(ctx, user.ID, camping.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := repo.GetCamping(ctx, user.ID, camping.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}

	tags, err := repo.ListCampingTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected tag to survive entry deletion, got %d tags", len(tags))
	}
	if tags[0].UsageCount != 0 {
		t.Fatalf("expected zero usage count after deletion, got %d", tags[0].UsageCount)
	}
}

func TestForeignIDBehavesAsMissing(t *testing.T) {
	repo := newTestRepository(t)
	alice := createTestUser(t, repo, "alice@example.com")
	bob := createTestUser(t, repo, "bob@example.com")
	ctx := context.Background()

	camping := createTestCamping(t, repo, alice.ID, "Lakeside", nil)

	if _, err := repo.GetCamping(ctx, bob.ID, camping.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for foreign read, got %v", err)
	}
	title := "stolen"
	if err := repo.UpdateCamping(ctx, bob.ID, camping.ID, entity.CampingUpdates{Title: &title}, nil); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for foreign update, got %v", err)
	}
	if err := repo.DeleteCamping(ctx, bob.ID, camping.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}

	// The entry is intact for its owner.
	loaded, err := repo.GetCamping(ctx, alice.ID, camping.ID)
	if err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if loaded.Title != "Lakeside" {
		t.Fatalf("expected entry untouched, got title %q", loaded.Title)
	}
}

func TestListCampingsScopedAndOrdered(t *testing.T) {
	repo := newTestRepository(t)
	alice := createTestUser(t, repo, "alice@example.com")
	bob := createTestUser(t, repo, "bob@example.com")
	ctx := context.Background()

	first := createTestCamping(t, repo, alice.ID, "First", nil)
	second := createTestCamping(t, repo, alice.ID, "Second", nil)
	createTestCamping(t, repo, bob.ID, "Bobs", nil)

	// Touch the older entry so it becomes the most recently updated.
	review := "back again"
	if err := repo.UpdateCamping(ctx, alice.ID, first.ID, entity.CampingUpdates{Review: &review}, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	campings, meta, err := repo.ListCampings(ctx, alice.ID, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if meta == nil || meta.Total != 2 {
		t.Fatalf("expected 2 entries for alice, got meta %+v", meta)
	}
	if len(campings) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(campings))
	}
	if campings[0].ID != first.ID || campings[1].ID != second.ID {
		t.Fatalf("expected most recently updated first, got order %d, %d", campings[0].ID, campings[1].ID)
	}
	for _, camping := range campings {
		if camping.UserID != alice.ID {
			t.Fatalf("listing leaked entry of user %d", camping.UserID)
		}
	}
}

func TestDeleteCampingTagRemovesLinks(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	camping := createTestCamping(t, repo, user.ID, "Lakeside", []entity.TagDescriptor{{Name: "summer"}})

	tags, err := repo.ListCampingTags(ctx, user.ID)
	if err != nil || len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d (err %v)", len(tags), err)
	}

	if err := repo.DeleteCampingTag(ctx, user.ID, tags[0].ID); err != nil {
		t.Fatalf("delete tag failed: %v", err)
	}

	loaded, err := repo.GetCamping(ctx, user.ID, camping.ID)
	if err != nil {
		t.Fatalf("failed to load camping: %v", err)
	}
	if len(loaded.Tags) != 0 {
		t.Fatalf("expected no tags after tag deletion, got %v", campingTagNames(loaded))
	}
}

func TestCreateCampingTagDuplicateSurfacesConflict(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "owner@example.com")
	ctx := context.Background()

	if err := repo.CreateCampingTag(ctx, &entity.DbCampingTag{UserID: user.ID, Name: "summer"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err := repo.CreateCampingTag(ctx, &entity.DbCampingTag{UserID: user.ID, Name: "summer"})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key error, got %v", err)
	}
}
