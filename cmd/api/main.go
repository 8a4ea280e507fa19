package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examhub-go-api/internal/config"
	"github.com/noah-isme/examhub-go-api/internal/database"
	"github.com/noah-isme/examhub-go-api/internal/handler"
	"github.com/noah-isme/examhub-go-api/internal/middleware"
	"github.com/noah-isme/examhub-go-api/internal/repository"
	"github.com/noah-isme/examhub-go-api/internal/router"
	"github.com/noah-isme/examhub-go-api/internal/service"
	"github.com/noah-isme/examhub-go-api/pkg/judge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	judgeClient := judge.NewClient(judge.Config{
		BaseURL:     cfg.JudgeBaseURL,
		APIKey:      cfg.JudgeAPIKey,
		APIHost:     cfg.JudgeAPIHost,
		PollWait:    cfg.JudgePollWait,
		MaxPolls:    cfg.JudgeMaxPolls,
		HTTPTimeout: cfg.JudgeHTTPTimeout,
		Logger:      logger,
	})

	examRepo := repository.NewExamRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	integrityRepo := repository.NewIntegrityRepository(db)

	events := service.NewEventPublisher(natsConn, logger)
	evaluationService := service.NewEvaluationService(examRepo, studentRepo, submissionRepo, evaluationRepo, judgeClient, events, logger)
	batchService := service.NewBatchService(examRepo, submissionRepo, evaluationRepo, batchRepo, evaluationService, events, logger)
	reportService := service.NewReportService(examRepo, submissionRepo, evaluationRepo, integrityRepo, redisClient, cfg.RankingCacheTTL, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, batchService, validate, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		ReportHandler:     reportHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
