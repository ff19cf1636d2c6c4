package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dthink_backend/database"
	"dthink_backend/internal/auth"
	"dthink_backend/internal/config"
	"dthink_backend/internal/email"
	"dthink_backend/internal/handlers"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/middleware"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/routes"
	"dthink_backend/internal/services"
	"dthink_backend/internal/session"
	"dthink_backend/internal/validator"
	"dthink_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}
	if err := database.SeedFreeTier(gormDB); err != nil {
		logger.Fatal("Failed to seed free plan", "error", err)
	}
	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	sessionStore := newSessionStore(cfg, gormDB)

	ginRouter := SetupRouter(cfg, gormDB, sessionStore)

	sweeper := workers.NewSweeper(gormDB, sessionStore, 15*time.Minute)
	sweeper.Start(context.Background())

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sessionStore session.Store) *gin.Engine {
	serviceContainer := initializeServices(cfg, gormDB, sessionStore)
	appHandlers := initializeHandlers(cfg, serviceContainer)

	ginRouter := initializeGinRouter(cfg)

	upgradeURL := cfg.Server.PublicURL + "/billing/upgrade"
	routes.RegisterRoutes(ginRouter, appHandlers, routes.Middlewares{
		RequireAuth:  middleware.RequireAuth(sessionStore, cfg.Session.CookieName),
		RequireAdmin: middleware.RequireAdmin(),
		ProjectQuota: middleware.RequireProjectQuota(serviceContainer.QuotaService, upgradeURL),
	})

	return ginRouter
}

func newSessionStore(cfg *config.Config, gormDB *gorm.DB) session.Store {
	ttl := time.Duration(cfg.Session.TTL) * time.Minute
	if cfg.Session.Store == "database" {
		logger.Info("Using database session store", "ttl", ttl)
		return session.NewGormStore(gormDB, ttl)
	}
	logger.Info("Using in-memory session store", "ttl", ttl)
	return session.NewMemoryStore(ttl)
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, sessionStore session.Store) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(gormDB)
	planRepo := repositories.NewPlanRepository(gormDB)
	projectRepo := repositories.NewProjectRepository(gormDB)
	inviteRepo := repositories.NewInviteRepository(gormDB)
	libraryRepo := repositories.NewLibraryRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)

	emailSender := email.NewSMTPSender(cfg)

	translationService := services.NewGeminiTranslator(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)

	authService := services.NewAuthService(gormDB, userRepo, planRepo, sessionStore)
	userService := services.NewUserService(userRepo, planRepo, sessionStore)
	quotaService := services.NewQuotaService(planRepo, projectRepo)
	projectService := services.NewProjectService(gormDB, projectRepo, translationService)
	inviteService := services.NewInviteService(
		gormDB,
		inviteRepo,
		projectRepo,
		emailSender,
		cfg.Invite.Secret,
		time.Duration(cfg.Invite.TTL)*time.Hour,
		cfg.Server.PublicURL,
	)
	libraryService := services.NewLibraryService(libraryRepo)
	subscriptionService := services.NewSubscriptionService(
		gormDB,
		planRepo,
		paymentRepo,
		userRepo,
		sessionStore,
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
		cfg.Server.PublicURL,
	)

	return &services.ServiceContainer{
		AuthService:         authService,
		UserService:         userService,
		QuotaService:        quotaService,
		ProjectService:      projectService,
		InviteService:       inviteService,
		LibraryService:      libraryService,
		SubscriptionService: subscriptionService,
		TranslationService:  translationService,
		EmailSender:         emailSender,
	}
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	googleProvider := auth.NewGoogleProvider(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
	)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService, container.UserService, googleProvider, cfg),
		UserHandler:         handlers.NewUserHandler(baseHandler, container.UserService),
		ProjectHandler:      handlers.NewProjectHandler(baseHandler, container.ProjectService, container.InviteService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, container.SubscriptionService),
		LibraryHandler:      handlers.NewLibraryHandler(baseHandler, container.LibraryService),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.PublicURL))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	result := db.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found. Creating first admin...", "email", adminEmail)

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		Username:     "admin",
		PasswordHash: hash,
		Provider:     models.ProviderLocal,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
