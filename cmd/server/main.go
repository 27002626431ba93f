package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"logbook/internal/api"
	"logbook/internal/config"
	"logbook/internal/model"
	"logbook/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if repo != nil {
		if err := model.SeedAdminUser(context.Background(), repo, cfg); err != nil {
			logrus.WithError(err).Warn("failed to seed admin user")
		}
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)
	authGroup.PATCH("/me", httpHandler.AuthMiddleware(), httpHandler.UpdateMe)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())

	protected.GET("/campings", httpHandler.ListCampings)
	protected.POST("/campings", httpHandler.CreateCamping)
	protected.GET("/campings/:id", httpHandler.GetCamping)
	protected.PUT("/campings/:id", httpHandler.UpdateCamping)
	protected.PATCH("/campings/:id", httpHandler.PatchCamping)
	protected.DELETE("/campings/:id", httpHandler.DeleteCamping)
	protected.POST("/campings/:id/photos", httpHandler.UploadCampingPhoto)
	protected.DELETE("/campings/:id/photos", httpHandler.DeleteCampingPhoto)

	protected.GET("/camping-tags", httpHandler.ListCampingTags)
	protected.POST("/camping-tags", httpHandler.CreateCampingTag)
	protected.GET("/camping-tags/:id", httpHandler.GetCampingTag)
	protected.PATCH("/camping-tags/:id", httpHandler.PatchCampingTag)
	protected.DELETE("/camping-tags/:id", httpHandler.DeleteCampingTag)

	protected.GET("/recipes", httpHandler.ListRecipes)
	protected.POST("/recipes", httpHandler.CreateRecipe)
	protected.GET("/recipes/:id", httpHandler.GetRecipe)
	protected.PUT("/recipes/:id", httpHandler.UpdateRecipe)
	protected.PATCH("/recipes/:id", httpHandler.PatchRecipe)
	protected.DELETE("/recipes/:id", httpHandler.DeleteRecipe)
	protected.POST("/recipes/:id/photos", httpHandler.UploadRecipePhoto)
	protected.DELETE("/recipes/:id/photos", httpHandler.DeleteRecipePhoto)

	protected.GET("/recipe-tags", httpHandler.ListRecipeTags)
	protected.POST("/recipe-tags", httpHandler.CreateRecipeTag)
	protected.GET("/recipe-tags/:id", httpHandler.GetRecipeTag)
	protected.PATCH("/recipe-tags/:id", httpHandler.PatchRecipeTag)
	protected.DELETE("/recipe-tags/:id", httpHandler.DeleteRecipeTag)

	userAdmin := protected.Group("/users")
	userAdmin.Use(httpHandler.RequireAdmin())
	userAdmin.GET("", httpHandler.ListUsers)
	userAdmin.POST("", httpHandler.CreateUser)
	userAdmin.PATCH(":id", httpHandler.UpdateUser)
	userAdmin.DELETE(":id", httpHandler.DeleteUser)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("server starting")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("server failed to start")
	}
}

// CORSMiddleware handles cross-origin requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware emits one structured log line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
