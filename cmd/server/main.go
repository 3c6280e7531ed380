package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/devhub/cv-optimizer/internal/config"
	"github.com/devhub/cv-optimizer/internal/domain/fiber/handler"
	"github.com/devhub/cv-optimizer/internal/logger"
	"github.com/devhub/cv-optimizer/internal/middleware"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/devhub/cv-optimizer/internal/repository"
	"github.com/devhub/cv-optimizer/internal/service"
	"github.com/devhub/cv-optimizer/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		fmt.Println("Could not load .env file")
	}

	if err := logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		fmt.Println("Could not initialize logger:", err)
		os.Exit(1)
	}
	log := logger.L()

	appConfig := config.LoadAppConfig()

	app := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: handler.MaxUploadBytes + 1024*1024, // headroom so oversize files reach the handler's own check
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB()

	cvRepo := repository.NewCVRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	jobRepo := repository.NewJobRepository(db)

	gemini, err := service.NewGeminiService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini service init failed")
	}
	documents := service.NewDocumentService()

	uc := usecase.NewCVUsecase(cvRepo, sectionRepo, artifactRepo, jobRepo, gemini, documents)
	h := handler.NewCVHandler(uc)
	h.RegisterRoutes(app)

	log.Info().Str("port", appConfig.Port).Msg("server running")
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()
	log := logger.L()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("could not get database instance")
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	err = db.AutoMigrate(&model.CV{}, &model.Section{}, &model.Artifact{}, &model.JobListing{})
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	return db
}
