package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"gorm.io/gorm"
)

// Dependencies holds everything the router wires together
type Dependencies struct {
	Config       *config.Config
	DB           *gorm.DB
	Log          *logrus.Logger
	SessionStore sessions.Store
	Registry     *prometheus.Registry
}

// NewRouter builds the gin engine with all middleware and routes
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Log

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	projectRepo := repository.NewProjectRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)
	membershipRepo := repository.NewMembershipRepository(deps.DB)

	// Services
	authService := services.NewAuthService(userRepo, tokens, log)
	projectService := services.NewProjectService(projectRepo, taskRepo, membershipRepo, log)
	membershipService := services.NewMembershipService(membershipRepo, userRepo, log)
	taskService := services.NewTaskService(taskRepo, membershipRepo, log)
	adminService := services.NewAdminService(userRepo, projectRepo, taskRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	projectHandler := handlers.NewProjectHandler(projectService, membershipService, log)
	membershipHandler := handlers.NewMembershipHandler(membershipService, log)
	taskHandler := handlers.NewTaskHandler(taskService, log)
	adminHandler := handlers.NewAdminHandler(adminService, log)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		gin.Recovery(),
		promMiddleware.Handler(),
	)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", constants.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", constants.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Route not found"})
	})

	// API routes
	api := r.Group("/api")
	api.Use(
		sessions.Sessions(constants.SessionCookieName, deps.SessionStore),
		middleware.ResolveIdentity(userRepo, tokens, log),
	)
	{
		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			authRoutes.PATCH("/me", middleware.RequireAuth(), authHandler.UpdateCurrentUser)
		}

		member := middleware.RequireProjectMember(membershipService, log)
		manager := middleware.RequireProjectManager()

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", member, projectHandler.GetProject)
			projects.PATCH("/:id", member, manager, projectHandler.UpdateProject)
			projects.DELETE("/:id", member, manager, projectHandler.DeleteProject)
			projects.GET("/:id/role", projectHandler.MyRole)
			projects.GET("/:id/tasks", member, projectHandler.ListProjectTasks)
			projects.POST("/:id/tasks", member, taskHandler.CreateTask)
			projects.GET("/:id/tasks/latest", member, projectHandler.LatestTask)
			projects.GET("/:id/tasks/oldest", member, projectHandler.OldestTask)
			projects.GET("/:id/tasks/highest-priority", member, projectHandler.HighestPriorityTask)
			projects.GET("/:id/members", member, membershipHandler.ListMembers)
			projects.POST("/:id/members", member, manager, membershipHandler.AddMember)
			projects.PATCH("/:id/members/:userId", member, manager, membershipHandler.UpdateMemberRole)
			projects.DELETE("/:id/members/:userId", member, manager, membershipHandler.RemoveMember)
			projects.POST("/:id/activity", member, membershipHandler.RecordActivity)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/assigned", taskHandler.FilterAssignedTasks)
			tasks.GET("/created", taskHandler.ListCreatedTasks)
			tasks.GET("/mine", taskHandler.ListMyProjectTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		// Admin routes; the gate answers 403 for anonymous callers too
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/:id/admin", adminHandler.GrantAdmin)
			admin.DELETE("/users/:id/admin", adminHandler.RevokeAdmin)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.POST("/users/:id/restore", adminHandler.RestoreUser)
			admin.DELETE("/users/:id/force", adminHandler.PurgeUser)
			admin.GET("/projects", adminHandler.ListProjects)
			admin.POST("/projects/:id/restore", adminHandler.RestoreProject)
			admin.DELETE("/projects/:id/force", adminHandler.PurgeProject)
			admin.POST("/tasks/:id/restore", adminHandler.RestoreTask)
			admin.DELETE("/tasks/:id/force", adminHandler.PurgeTask)
		}
	}

	return r, nil
}
