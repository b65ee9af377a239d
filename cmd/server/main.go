package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/quiz-service/internal/cache"
	"github.com/studyloop/quiz-service/internal/config"
	"github.com/studyloop/quiz-service/internal/handlers"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories/postgres"
	"github.com/studyloop/quiz-service/internal/services"
	"github.com/studyloop/quiz-service/internal/utils"
	"github.com/studyloop/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	logger := utils.NewSlogLogger(slogLogger)
	if cfg.Environment != "production" {
		logger = utils.NewDevelopmentLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ContentPack{},
		&models.KnowledgeNode{},
		&models.QuizSession{},
		&models.Question{},
		&models.AnswerOption{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, logger)
	validator := utils.NewValidator()

	nodeService := services.NewNodeService(repo, cacheService, publisher, logger, validator)
	packService := services.NewContentPackService(repo, publisher, logger, validator)
	sessionService := services.NewSessionService(repo, publisher, logger, validator)
	importService := services.NewImportService(repo, logger, validator)
	userService := services.NewUserService(repo, logger, validator)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		nodeService,
		packService,
		sessionService,
		importService,
		userService,
		validator,
		logger,
	)
	handlerManager.SetupRoutes(router)

	logger.Info("Starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
