package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/config"
	"github.com/wardrobe/backend/internal/database"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/models"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/pkg/logger"
	"github.com/wardrobe/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	auditService := services.NewAuditService(db)
	tokenService := services.NewShareTokenService(db, 30*24*time.Hour)
	groupService := services.NewGroupService(db)
	ratingService := services.NewRatingService(db, groupService, true)
	usageService := services.NewUsageService(db, 3)
	suggestionService := services.NewSuggestionService(db, config.OracleConfig{})

	authHandler := NewAuthHandler(db, nil)
	outfitsHandler := NewOutfitsHandler(db, nil, usageService, auditService)
	sharesHandler := NewSharesHandler(tokenService, nil, auditService)
	groupsHandler := NewGroupsHandler(groupService, ratingService, nil, auditService)
	suggestionsHandler := NewSuggestionsHandler(suggestionService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 20 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Profile)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateProfile)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)
	authRoutes.Post("/profile-pic", authMiddleware.RequireAuth, authHandler.UploadProfilePic)

	outfitRoutes := api.Group("/outfits", authMiddleware.RequireAuth)
	outfitRoutes.Post("/", outfitsHandler.Create)
	outfitRoutes.Get("/", outfitsHandler.List)
	outfitRoutes.Get("/stats", outfitsHandler.Stats)
	outfitRoutes.Put("/:id", outfitsHandler.Update)
	outfitRoutes.Delete("/:id", outfitsHandler.Delete)
	outfitRoutes.Post("/:id/use", outfitsHandler.MarkUsed)
	outfitRoutes.Post("/:id/share", sharesHandler.Share)

	api.Get("/shared-outfit/:token", authMiddleware.OptionalAuth, sharesHandler.ResolveShared)
	api.Post("/shared-outfit/:token/add-to-wardrobe", authMiddleware.RequireAuth, sharesHandler.AddToWardrobe)

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Post("/", groupsHandler.Create)
	groupRoutes.Get("/", groupsHandler.List)
	groupRoutes.Post("/join", groupsHandler.Join)
	groupRoutes.Get("/:id", groupsHandler.Get)
	groupRoutes.Post("/:id/share", groupsHandler.ShareOutfit)
	groupRoutes.Post("/:id/outfits/:outfitId/rate", groupsHandler.Rate)

	api.Post("/suggestions/ai", authMiddleware.RequireAuth, suggestionsHandler.AI)
	api.Get("/suggestions/weather", authMiddleware.RequireAuth, suggestionsHandler.Weather)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Gender:       "female",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestOutfit(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, usageCount int64) *models.Outfit {
	t.Helper()

	outfit := &models.Outfit{
		OwnerID:    ownerID,
		Name:       name,
		Category:   models.OutfitCategoryCasual,
		Season:     models.OutfitSeasonAll,
		Color:      "blue",
		UsageCount: usageCount,
	}
	if err := db.Create(outfit).Error; err != nil {
		t.Fatalf("failed creating test outfit: %v", err)
	}
	return outfit
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
