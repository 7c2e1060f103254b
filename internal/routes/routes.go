package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devil-1964/notesapp/internal/config"
	"github.com/devil-1964/notesapp/internal/handlers"
	"github.com/devil-1964/notesapp/internal/middleware"
	"github.com/devil-1964/notesapp/internal/services"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Share.BaseURL))
	router.Use(middleware.RateLimit(60))

	authService := services.NewAuthService(db)
	noteService := services.NewNoteService(db)
	shareService := services.NewShareService(db, noteService)

	authHandler := handlers.NewAuthHandler(authService, cfg)
	noteHandler := handlers.NewNoteHandler(noteService)
	shareHandler := handlers.NewShareHandler(shareService, cfg)

	api := router.Group("/api")

	// Public routes: registration, login, and token resolution. The shared
	// route must stay outside the auth group.
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.GET("/shared/:token", shareHandler.Resolve)

	protected := api.Group("")
	protected.Use(middleware.Auth(db, cfg))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/notes", noteHandler.Create)
		protected.GET("/notes", noteHandler.List)
		protected.GET("/notes/:id", noteHandler.Get)

		protected.PUT("/:id", noteHandler.Update)
		protected.DELETE("/:id", noteHandler.Delete)

		protected.GET("/:id/share", shareHandler.Status)
		protected.POST("/:id/share", shareHandler.Generate)
		protected.DELETE("/:id/share", shareHandler.Revoke)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
