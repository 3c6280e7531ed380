// seed-jobs embeds and stores a starter set of job listings so the
// matching-jobs endpoint has a corpus to search.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/devhub/cv-optimizer/internal/config"
	"github.com/devhub/cv-optimizer/internal/logger"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/devhub/cv-optimizer/internal/repository"
	"github.com/devhub/cv-optimizer/internal/service"
	"github.com/devhub/cv-optimizer/internal/usecase"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		fmt.Println("Could not load .env file")
	}
	if err := logger.Init(os.Getenv("LOG_LEVEL"), ""); err != nil {
		fmt.Println("Could not initialize logger:", err)
		os.Exit(1)
	}
	log := logger.L()

	dbConfig := config.LoadDBConfig()
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host, dbConfig.User, dbConfig.Password, dbConfig.Name, dbConfig.Port, dbConfig.SSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	if err := db.AutoMigrate(&model.JobListing{}); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	gemini, err := service.NewGeminiService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini service init failed")
	}

	uc := usecase.NewCVUsecase(
		repository.NewCVRepository(db),
		repository.NewSectionRepository(db),
		repository.NewArtifactRepository(db),
		repository.NewJobRepository(db),
		gemini,
		service.NewDocumentService(),
	)

	listings := []model.JobListing{
		{
			Title:    "Backend Engineer (Go)",
			Company:  "DevHub",
			Location: "Remote",
			Content:  "Design and operate Go services: REST APIs, PostgreSQL, background workers, observability. Experience with async job pipelines and third-party API integration expected.",
		},
		{
			Title:    "Frontend Engineer",
			Company:  "DevHub",
			Location: "Remote",
			Content:  "React, TypeScript, Tailwind. Build data-heavy dashboards and review flows against REST backends.",
		},
		{
			Title:    "Platform Engineer",
			Company:  "DevHub",
			Location: "Berlin",
			Content:  "Kubernetes, Terraform, CI/CD pipelines, on-call for shared infrastructure. Strong Linux and networking fundamentals.",
		},
	}

	start := time.Now()
	if err := uc.SeedJobListings(ctx, listings); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Int("count", len(listings)).Dur("took", time.Since(start)).Msg("job listings seeded")
}
