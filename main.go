package main

import (
	"log"

	api "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/cmd/api"
	authdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/domain"
	authrepo "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/repository"
	authusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/usecase"
	calendarusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/usecase"
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"
	credentialrepo "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/repository"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/config"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/database"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/googlecal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &credentialdomain.CalendarCredential{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authrepo.NewUserRepository(db)
	credentialRepo := credentialrepo.NewCredentialRepository(db)

	// Initialize Google Calendar gateway
	googleService := googlecal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	if !googleService.IsConfigured() {
		log.Printf("[WARN] Google client credentials not configured, calendar operations will degrade")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authusecase.NewAuthUsecase(userRepo, cfg.JWTSecret)
	calendarUsecaseInstance := calendarusecase.NewCalendarUsecase(googleService, credentialRepo, userRepo, cfg.ForceRefreshHorizon)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, calendarUsecaseInstance, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
