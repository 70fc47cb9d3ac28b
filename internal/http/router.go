package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// RouterConfig holds every dependency of the HTTP layer.
type RouterConfig struct {
	AuthConfig     config.Auth
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	CSRFSecret     []byte

	Stores        map[string]Pinger
	Books         BookStore
	Availability  AvailabilityReader
	Users         UserStore
	Accounts      AccountService
	Settings      SettingStore
	Lifecycle     Lifecycle
	Feedback      FeedbackService
	Notifications NotificationReader
	Archiver      SubmissionArchiver

	LibraryName string
	Version     string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	middleware := cfg.AuthMiddleware
	if middleware == nil {
		middleware = auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(middleware.Handler())

	adminOnly := middleware.RequireRole(entities.UserRoleAdmin)
	signedIn := middleware.RequireAuth()

	health := NewHealthController(cfg.Stores, cfg.Settings, cfg.LibraryName, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Availability)
	usersController := NewUsersController(cfg.Users, cfg.Accounts)
	activitiesController := NewActivitiesController(cfg.Lifecycle)
	settingsController := NewSettingsController(cfg.Settings)
	submissions := NewSubmissionsController(cfg.Feedback, cfg.Notifications, cfg.Archiver)

	api := router.Group("/api")

	api.GET("/welcome", health.Welcome)
	api.GET("/health", health.Status)

	// Auth endpoints
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() && cfg.SessionManager != nil {
		auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig).RegisterRoutes(api.Group("/auth"))
	} else {
		api.GET("/auth/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"auth_mode": config.AuthModeNone, "is_admin": true})
		})
	}

	// Books
	bookRoutes := api.Group("/books", signedIn)
	bookRoutes.GET("", booksController.GetAllBooks)
	bookRoutes.GET("/search", booksController.SearchBooks)
	bookRoutes.GET("/stats", booksController.GetBookStats)
	bookRoutes.GET("/:id", booksController.GetBook)
	bookRoutes.GET("/:id/availability", booksController.GetAvailability)
	bookRoutes.POST("", adminOnly, booksController.CreateBook)
	bookRoutes.PUT("/:id", adminOnly, booksController.UpdateBook)
	bookRoutes.DELETE("/:id", adminOnly, booksController.DeleteBook)

	// Users
	userRoutes := api.Group("/users", signedIn)
	userRoutes.GET("", adminOnly, usersController.GetAllUsers)
	userRoutes.POST("", adminOnly, usersController.CreateUser)
	userRoutes.GET("/:id", usersController.GetUser)
	userRoutes.PUT("/:id", usersController.UpdateUser)
	userRoutes.DELETE("/:id", adminOnly, usersController.DeleteUser)

	// Activities
	activityRoutes := api.Group("/activities", signedIn)
	activityRoutes.GET("", activitiesController.ListActivities)
	activityRoutes.GET("/:id", activitiesController.GetActivity)
	activityRoutes.POST("/checkout", activitiesController.Checkout)
	activityRoutes.POST("/reserve", activitiesController.Reserve)
	activityRoutes.POST("/:id/return", activitiesController.ReturnBook)
	activityRoutes.POST("/:id/close", activitiesController.CloseReservation)

	// Settings
	settingRoutes := api.Group("/settings", signedIn)
	settingRoutes.GET("", settingsController.GetAllSettings)
	settingRoutes.GET("/:key", settingsController.GetSetting)
	settingRoutes.PUT("/:key", adminOnly, settingsController.SetSetting)
	settingRoutes.DELETE("/:key", adminOnly, settingsController.DeleteSetting)

	// Submissions: anyone may submit, only administrators read
	submissionRoutes := api.Group("/submissions")
	submissionRoutes.POST("/ratings", submissions.SubmitRating)
	submissionRoutes.POST("/contact", submissions.SubmitContact)

	adminSubmissions := submissionRoutes.Group("", adminOnly)
	adminSubmissions.GET("/ratings", submissions.ListRatings)
	adminSubmissions.GET("/ratings/summary", submissions.RatingSummary)
	adminSubmissions.GET("/ratings/:id", submissions.GetRating)
	adminSubmissions.PUT("/ratings/:id/reply", submissions.ReplyToRating)
	adminSubmissions.GET("/contact", submissions.ListContacts)
	adminSubmissions.GET("/notifications", submissions.ListNotifications)
	adminSubmissions.GET("/notifications/count", submissions.UnreadCount)
	adminSubmissions.POST("/notifications/read-all", submissions.MarkAllNotificationsRead)
	adminSubmissions.POST("/notifications/:id/read", submissions.MarkNotificationRead)

	return router
}
