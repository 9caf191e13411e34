package main

import (
	"context"
	"log"
	"os"

	_ "pawhome/api/swagger" // swagger docs
	"pawhome/internal/database"
	"pawhome/internal/gateway"
	"pawhome/internal/handler"
	"pawhome/internal/middleware"
	"pawhome/internal/notify"
	"pawhome/internal/repository"
	"pawhome/internal/service"
	"pawhome/internal/storage"
	"pawhome/internal/websocket"
	"pawhome/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           PawHome API
// @version         1.0
// @description     Pet adoption and lost-and-found marketplace API.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	zlog, err := logger.New(os.Getenv("GIN_MODE"))
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer zlog.Sync()

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "pawhome"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		zlog.Fatal("database connection failed", "error", err)
	}
	zlog.Info("connected to PostgreSQL")

	// External collaborators
	photoStore, err := storage.NewMinioStore(context.Background(), storage.MinioConfigFromEnv())
	if err != nil {
		zlog.Fatal("object storage init failed", "error", err)
	}

	mailer := notify.NewSendGridMailer(notify.SendGridConfigFromEnv())
	notifier := notify.NewNotifier(mailer, zlog)

	paymentGateway := gateway.New(gateway.ConfigFromEnv())

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	petRepo := repository.NewPetRepository(db)
	adoptionRepo := repository.NewAdoptionRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	reportService := service.NewReportService(reportRepo, userRepo, auditRepo, txManager, wsHub, notifier, zlog)
	matchService := service.NewMatchService(reportRepo, auditRepo, txManager, wsHub, notifier, zlog)
	petService := service.NewPetService(petRepo, adoptionRepo, auditRepo, txManager, wsHub, notifier, zlog)
	appointmentService := service.NewAppointmentService(appointmentRepo, userRepo, wsHub, zlog)
	paymentService := service.NewPaymentService(paymentRepo, adoptionRepo, appointmentRepo, paymentGateway, wsHub, zlog)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	reportHandler := handler.NewReportHandler(reportService, matchService)
	petHandler := handler.NewPetHandler(petService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	uploadHandler := handler.NewUploadHandler(photoStore)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	petHandler.RegisterRoutes(router.Group(""))
	appointmentHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	uploadHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal("server failed", "error", err)
	}
}
