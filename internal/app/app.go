package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"legalaid/internal/config"
	"legalaid/internal/handlers"
	"legalaid/internal/middleware"
	"legalaid/internal/repositories"
	"legalaid/internal/routes"
	"legalaid/internal/services"
	"legalaid/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "legalaid/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to DB: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close DB: %v", err)
		}
	}()

	// === Migrations ===
	if err := runMigrations(cfg); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// === JWT ===
	middleware.JWTKey = []byte(cfg.Auth.JWTSecret)

	// === Repos ===
	accountRepo := repositories.NewAccountRepository(db)
	codeRepo := repositories.NewOneTimeCodeRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	smsClient := utils.NewClient(
		cfg.SMS.APIToken,
		cfg.SMS.SenderID,
		cfg.SMS.DryRun,
	)

	verificationService := services.NewVerificationService(codeRepo, accountRepo, emailService, smsClient)
	authService := services.NewAuthService(accountRepo, verificationService, []byte(cfg.Auth.JWTSecret))
	resetService := services.NewPasswordResetService(accountRepo, resetRepo, emailService, smsClient, authService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	verifyHandler := handlers.NewVerifyHandler(verificationService)
	resetHandler := handlers.NewPasswordResetHandler(resetService)
	accountHandler := handlers.NewAccountHandler(accountRepo, authService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		verifyHandler,
		resetHandler,
		accountHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New("file://"+cfg.Database.MigrationsDir, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
