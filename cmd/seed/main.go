package main

import (
	"errors"

	_ "github.com/joho/godotenv/autoload"

	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/logger"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// seed creates the first admin account from ADMIN_* settings
func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if cfg.DBMigrate {
		if err := database.Migrate(db, cfg.DBDriver, log); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
	}

	adminService := services.NewAdminService(
		repository.NewUserRepository(db),
		repository.NewProjectRepository(db),
		repository.NewTaskRepository(db),
		log,
	)

	admin, err := adminService.SeedAdmin(services.SeedAdminInput{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if errors.Is(err, services.ErrAdminExists) {
		log.Info("Admin account already exists, nothing to seed")
		return
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to seed admin")
	}

	log.WithField("email", admin.Email).Info("Admin account created")
}
