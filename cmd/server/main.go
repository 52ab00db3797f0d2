package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/wardrobe/backend/internal/config"
	"github.com/wardrobe/backend/internal/database"
	"github.com/wardrobe/backend/internal/handlers"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/internal/storage"
	"github.com/wardrobe/backend/pkg/logger"
	"github.com/wardrobe/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	auditService := services.NewAuditService(db)
	tokenService := services.NewShareTokenService(db, cfg.Share.TokenValidity)
	groupService := services.NewGroupService(db)
	ratingService := services.NewRatingService(db, groupService, cfg.Rating.AllowSelf)
	usageService := services.NewUsageService(db, cfg.Share.RankingsSize)
	suggestionService := services.NewSuggestionService(db, cfg.Oracle)

	authHandler := handlers.NewAuthHandler(db, storageClient)
	outfitsHandler := handlers.NewOutfitsHandler(db, storageClient, usageService, auditService)
	sharesHandler := handlers.NewSharesHandler(tokenService, storageClient, auditService)
	groupsHandler := handlers.NewGroupsHandler(groupService, ratingService, storageClient, auditService)
	suggestionsHandler := handlers.NewSuggestionsHandler(suggestionService)

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
