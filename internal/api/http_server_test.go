package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"logbook/internal/config"
	"logbook/internal/entity"
	sqlrepo "logbook/internal/model/sql"
	"logbook/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestServer(t *testing.T) (*gin.Engine, *HTTPHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}

	cfg := config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "logbook-test",
		JWTExpirationMinutes: 60,
		StoragePublicBaseURL: "/files",
	}

	handler, err := NewHTTPHandler(cfg, sqlrepo.NewGormRepository(db), store)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	r := gin.New()
	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", handler.Register)
	authGroup.POST("/login", handler.Login)
	authGroup.GET("/me", handler.AuthMiddleware(), handler.Me)
	authGroup.PATCH("/me", handler.AuthMiddleware(), handler.UpdateMe)

	protected := r.Group("/api")
	protected.Use(handler.AuthMiddleware())
	protected.GET("/campings", handler.ListCampings)
	protected.POST("/campings", handler.CreateCamping)
	protected.GET("/campings/:id", handler.GetCamping)
	protected.PUT("/campings/:id", handler.UpdateCamping)
	protected.PATCH("/campings/:id", handler.PatchCamping)
	protected.DELETE("/campings/:id", handler.DeleteCamping)
	protected.GET("/camping-tags", handler.ListCampingTags)
	protected.POST("/camping-tags", handler.CreateCampingTag)
	protected.GET("/recipes", handler.ListRecipes)
	protected.POST("/recipes", handler.CreateRecipe)
	protected.GET("/recipes/:id", handler.GetRecipe)
	protected.PATCH("/recipes/:id", handler.PatchRecipe)
	protected.GET("/recipe-tags", handler.ListRecipeTags)

	userAdmin := protected.Group("/users")
	userAdmin.Use(handler.RequireAdmin())
	userAdmin.GET("", handler.ListUsers)

	return r, handler
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerTestUser(t *testing.T, r *gin.Engine, email string) (string, uint) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}
	var resp entity.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode auth response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token in the auth response")
	}
	return resp.Token, resp.User.ID
}

func decodeCamping(t *testing.T, w *httptest.ResponseRecorder) entity.CampingItem {
	t.Helper()
	var resp entity.CampingDetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode camping response: %v", err)
	}
	return resp.Camping
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	r, _ := newTestServer(t)

	paths := []string{"/api/campings", "/api/recipes", "/api/camping-tags", "/api/recipe-tags"}
	for _, path := range paths {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: got %d, want 401", path, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/campings", "not-a-valid-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/campings with garbage token: got %d, want 401", w.Code)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	r, _ := newTestServer(t)

	registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: got %d, want 409", w.Code)
	}
	var apiErr APIError
	if err := json.Unmarshal(w.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if apiErr.Code != ErrCodeEmailExists {
		t.Errorf("error code: got %q, want %q", apiErr.Code, ErrCodeEmailExists)
	}
}

func TestLoginWithWrongPassword(t *testing.T) {
	r, _ := newTestServer(t)
	registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password login: got %d, want 401", w.Code)
	}
}

func TestCampingTagLifecycleOverPatch(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/campings", token, gin.H{
		"title":  "lakeside",
		"review": "quiet and green",
		"price":  120,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create camping: got %d: %s", w.Code, w.Body.String())
	}
	camping := decodeCamping(t, w)
	if len(camping.Tags) != 0 {
		t.Fatalf("new camping tags: got %d, want 0", len(camping.Tags))
	}

	path := fmt.Sprintf("/api/campings/%d", camping.ID)

	w = doJSON(t, r, http.MethodPatch, path, token, gin.H{
		"tags": []gin.H{{"name": "tag1"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch tags: got %d: %s", w.Code, w.Body.String())
	}
	camping = decodeCamping(t, w)
	if len(camping.Tags) != 1 || camping.Tags[0].Name != "tag1" {
		t.Fatalf("after attach: got tags %+v, want one tag named tag1", camping.Tags)
	}

	w = doJSON(t, r, http.MethodPatch, path, token, gin.H{
		"tags": []gin.H{},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("clear tags: got %d: %s", w.Code, w.Body.String())
	}
	camping = decodeCamping(t, w)
	if len(camping.Tags) != 0 {
		t.Fatalf("after clear: got %d tags, want 0", len(camping.Tags))
	}

	// The detached tag survives in the taxonomy.
	w = doJSON(t, r, http.MethodGet, "/api/camping-tags", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list camping tags: got %d", w.Code)
	}
	var tagList entity.TagListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tagList); err != nil {
		t.Fatalf("failed to decode tag list: %v", err)
	}
	if len(tagList.Tags) != 1 || tagList.Tags[0].Name != "tag1" {
		t.Fatalf("taxonomy after clear: got %+v, want tag1 with zero usage", tagList.Tags)
	}
	if tagList.Tags[0].UsageCount != 0 {
		t.Errorf("usage count: got %d, want 0", tagList.Tags[0].UsageCount)
	}
}

func TestPatchWithoutTagsKeyLeavesTags(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/campings", token, gin.H{
		"title":  "forest",
		"review": "tall pines",
		"price":  80,
		"tags":   []gin.H{{"name": "hiking"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create camping: got %d: %s", w.Code, w.Body.String())
	}
	camping := decodeCamping(t, w)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/campings/%d", camping.ID), token, gin.H{
		"title": "deep forest",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch title: got %d: %s", w.Code, w.Body.String())
	}
	camping = decodeCamping(t, w)
	if camping.Title != "deep forest" {
		t.Errorf("title: got %q, want %q", camping.Title, "deep forest")
	}
	if len(camping.Tags) != 1 || camping.Tags[0].Name != "hiking" {
		t.Fatalf("tags after scalar patch: got %+v, want hiking untouched", camping.Tags)
	}
}

func TestForeignCampingIsNotFound(t *testing.T) {
	r, _ := newTestServer(t)
	aliceToken, _ := registerTestUser(t, r, "alice@example.com")
	bobToken, _ := registerTestUser(t, r, "bob@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/campings", aliceToken, gin.H{
		"title":  "riverbank",
		"review": "good fishing",
		"price":  60,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create camping: got %d: %s", w.Code, w.Body.String())
	}
	camping := decodeCamping(t, w)
	path := fmt.Sprintf("/api/campings/%d", camping.ID)

	w = doJSON(t, r, http.MethodGet, path, bobToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("bob GET alice's camping: got %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, path, bobToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("bob DELETE alice's camping: got %d, want 404", w.Code)
	}

	// The entry is intact for its owner.
	w = doJSON(t, r, http.MethodGet, path, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("alice GET own camping after bob's delete attempt: got %d, want 200", w.Code)
	}
}

func TestRecipeListOmitsDescription(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/recipes", token, gin.H{
		"title":        "stew",
		"description":  "simmer for two hours",
		"time_minutes": 120,
		"price":        45,
		"tags":         []gin.H{{"name": "Winter Food"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create recipe: got %d: %s", w.Code, w.Body.String())
	}
	var detail entity.RecipeDetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode recipe: %v", err)
	}
	if detail.Recipe.Description != "simmer for two hours" {
		t.Errorf("detail description: got %q", detail.Recipe.Description)
	}
	if len(detail.Recipe.Tags) != 1 || detail.Recipe.Tags[0].Slug != "winter-food" {
		t.Fatalf("recipe tags: got %+v, want one tag with slug winter-food", detail.Recipe.Tags)
	}

	w = doJSON(t, r, http.MethodGet, "/api/recipes", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list recipes: got %d", w.Code)
	}
	var list map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(list["recipes"], &items); err != nil {
		t.Fatalf("failed to decode recipes array: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("recipe count: got %d, want 1", len(items))
	}
	if _, ok := items[0]["description"]; ok {
		t.Error("list item carries a description field, want it omitted")
	}
}

func TestAdminGuard(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/users", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin list users: got %d, want 403", w.Code)
	}
}

func TestUpdateMeChangesDisplayName(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := registerTestUser(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPatch, "/api/auth/me", token, gin.H{
		"display_name": "Alice In Tents",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update me: got %d: %s", w.Code, w.Body.String())
	}
	var summary entity.UserSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if summary.DisplayName != "Alice In Tents" {
		t.Errorf("display name: got %q", summary.DisplayName)
	}
}
