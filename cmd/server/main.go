package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"medtrack/internal/config"
	"medtrack/internal/database"
	"medtrack/internal/handlers"
	"medtrack/internal/realtime"
	"medtrack/internal/repository"
	"medtrack/internal/security"
	"medtrack/internal/service"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	ctx := context.Background()

	// Seed the cosmetic avatar catalog
	if err := db.SeedAvatarCatalog(ctx); err != nil {
		log.Printf("Warning: Failed to seed avatar catalog: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	medRepo := repository.NewMedicationRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Realtime invalidation hub
	hub := realtime.NewHub()

	// Invitation emails are optional; the service disables itself when
	// no sender address is configured.
	var emailSender service.InvitationEmailSender
	if emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL); err != nil {
		log.Printf("Warning: email service unavailable: %v", err)
	} else {
		emailSender = emailService
	}

	// Initialize services
	tokenIssuer := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, tokenIssuer)
	adherenceService := service.NewAdherenceService(medRepo)
	medicationService := service.NewMedicationService(medRepo, userRepo, adherenceService)
	caregiverService := service.NewCaregiverService(invitationRepo, relationshipRepo, emailSender, cfg.InviteTTL, cfg.InviteFlagsFromInvitation)
	patientService := service.NewPatientService(profileRepo, userRepo, medRepo, adherenceService, caregiverService)
	avatarService := service.NewAvatarService(preferenceRepo, catalogRepo, hub)
	notificationService := service.NewNotificationService(tokenRepo, map[string]service.PushGateway{
		"ios":     service.LogPushGateway{},
		"android": service.LogPushGateway{},
	})

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokenIssuer, limiter)
	authHandler := handlers.NewAuthHandler(authService, userRepo, oauthConfig, cfg.OAuthRedirectBase, cfg.AppBaseURL)
	profileHandler := handlers.NewProfileHandler(patientService)
	medicationHandler := handlers.NewMedicationHandler(medicationService, adherenceService)
	caregiverHandler := handlers.NewCaregiverHandler(caregiverService, patientService)
	avatarHandler := handlers.NewAvatarHandler(avatarService, preferenceRepo, catalogRepo, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationService, tokenRepo)
	realtimeHandler := handlers.NewRealtimeHandler(hub, tokenIssuer)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /auth/google/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.OAuthCallback)
	mux.HandleFunc("POST /api/notifications/send", notificationHandler.Send)
	mux.HandleFunc("GET /ws", realtimeHandler.ServeWS)

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(profileHandler.GetProfile))
	mux.HandleFunc("PUT /api/profile", middleware.RequireAuth(profileHandler.UpdateProfile))

	// Medications and doses
	mux.HandleFunc("GET /api/medications", middleware.RequireAuth(medicationHandler.ListMedications))
	mux.HandleFunc("POST /api/medications", middleware.RequireAuth(medicationHandler.CreateMedication))
	mux.HandleFunc("DELETE /api/medications/{id}", middleware.RequireAuth(medicationHandler.DeleteMedication))
	mux.HandleFunc("POST /api/doses/{id}/take", middleware.RequireAuth(medicationHandler.TakeDose))
	mux.HandleFunc("POST /api/doses/{id}/skip", middleware.RequireAuth(medicationHandler.SkipDose))
	mux.HandleFunc("POST /api/doses/{id}/snooze", middleware.RequireAuth(medicationHandler.SnoozeDose))
	mux.HandleFunc("GET /api/adherence/streak", middleware.RequireAuth(medicationHandler.GetStreak))

	// Caregiver invitations and relationships
	mux.HandleFunc("POST /api/caregivers/invitations", middleware.RequireAuth(caregiverHandler.CreateInvitation))
	mux.HandleFunc("GET /api/caregivers/invitations", middleware.RequireAuth(caregiverHandler.ListInvitations))
	mux.HandleFunc("DELETE /api/caregivers/invitations/{id}", middleware.RequireAuth(caregiverHandler.CancelInvitation))
	mux.HandleFunc("POST /api/caregivers/accept", middleware.RequireAuth(caregiverHandler.AcceptInvitation))
	mux.HandleFunc("GET /api/caregivers", middleware.RequireAuth(caregiverHandler.ListCaregivers))
	mux.HandleFunc("GET /api/patients", middleware.RequireAuth(caregiverHandler.ListPatients))
	mux.HandleFunc("PUT /api/caregivers/{id}/flags", middleware.RequireAuth(caregiverHandler.UpdateCaregiverFlags))
	mux.HandleFunc("DELETE /api/caregivers/{id}", middleware.RequireAuth(caregiverHandler.RevokeRelationship))
	mux.HandleFunc("GET /api/patients/{id}/overview", middleware.RequireAuth(caregiverHandler.PatientOverview))

	// Avatar
	mux.HandleFunc("GET /api/avatar", middleware.RequireAuth(avatarHandler.GetAvatar))
	mux.HandleFunc("POST /api/avatar/refresh", middleware.RequireAuth(avatarHandler.RefreshAvatar))
	mux.HandleFunc("PUT /api/avatar", middleware.RequireAuth(avatarHandler.EquipAvatar))
	mux.HandleFunc("GET /api/avatar/catalog", middleware.RequireAuth(avatarHandler.ListCatalog))

	// Push tokens
	mux.HandleFunc("POST /api/notifications/tokens", middleware.RequireAuth(notificationHandler.RegisterToken))
	mux.HandleFunc("DELETE /api/notifications/tokens", middleware.RequireAuth(notificationHandler.DeactivateToken))

	// Wrap with CORS and logging middleware
	handler := handlers.Logging(handlers.CORS(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background sweepers
	go runSweepers(medicationService, caregiverService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	avatarHandler.Close()
	hub.Shutdown()
}

// runSweepers periodically expires overdue invitations and marks
// unresolved doses from previous days as missed.
func runSweepers(medications *service.MedicationService, caregivers *service.CaregiverService) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		if n, err := caregivers.ExpireOverdueInvitations(ctx); err != nil {
			log.Printf("Failed to expire invitations: %v", err)
		} else if n > 0 {
			log.Printf("Expired %d overdue invitation(s)", n)
		}

		if n, err := medications.SweepOverdueDoses(ctx); err != nil {
			log.Printf("Failed to sweep overdue doses: %v", err)
		} else if n > 0 {
			log.Printf("Marked %d overdue dose(s) as missed", n)
		}

		cancel()
	}
}
