package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/logger"
	"github.com/yukikurage/project-tracker-api/internal/router"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if cfg.DBMigrate {
		if err := database.Migrate(db, cfg.DBDriver, log); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Setup session store
	store, err := router.NewSessionStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create session store")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r, err := router.NewRouter(router.Dependencies{
		Config:       cfg,
		DB:           db,
		Log:          log,
		SessionStore: store,
		Registry:     registry,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to build router")
	}

	// Start server
	log.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
