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

	"github.com/hackhub-dev/judging-api/internal/config"
	"github.com/hackhub-dev/judging-api/internal/database"
	"github.com/hackhub-dev/judging-api/internal/handler"
	"github.com/hackhub-dev/judging-api/internal/middleware"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
	"github.com/hackhub-dev/judging-api/internal/router"
	"github.com/hackhub-dev/judging-api/internal/service"
	"github.com/hackhub-dev/judging-api/pkg/ai"
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

	if err := db.AutoMigrate(
		&models.Team{},
		&models.Project{},
		&models.Challenge{},
		&models.ChallengePrize{},
		&models.Judging{},
		&models.JudgingChallenge{},
		&models.JudgingEntry{},
		&models.BotScore{},
		&models.ChallengeWinner{},
		&models.ActivityLog{},
	); err != nil {
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
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	judge := buildJudge(cfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	judgingRepo := repository.NewJudgingRepository(db)
	bindingRepo := repository.NewJudgingChallengeRepository(db)
	entryRepo := repository.NewJudgingEntryRepository(db)
	botScoreRepo := repository.NewBotScoreRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	winnerRepo := repository.NewWinnerRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	judgingService := service.NewJudgingService(judgingRepo, entryRepo, logger)
	reconcilerService := service.NewReconcilerService(judgingRepo, bindingRepo, entryRepo, botScoreRepo, redisClient, validate, logger)
	entryService := service.NewEntryService(judgingRepo, bindingRepo, entryRepo, projectRepo, redisClient, cfg.ProgressCacheTTL, validate, activityService, logger)
	winnerService := service.NewWinnerService(judgingRepo, bindingRepo, entryRepo, challengeRepo, projectRepo, winnerRepo, natsConn, validate, activityService, logger)
	botJudgeService := service.NewBotJudgeService(judge, projectRepo, challengeRepo, botScoreRepo, validate, activityService, logger, cfg.AIProvider, cfg.AIModel)

	judgingHandler := handler.NewJudgingHandler(judgingService, reconcilerService, logger)
	entryHandler := handler.NewEntryHandler(entryService, logger)
	winnerHandler := handler.NewWinnerHandler(winnerService, logger)
	botJudgeHandler := handler.NewBotJudgeHandler(botJudgeService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		JudgingHandler:  judgingHandler,
		EntryHandler:    entryHandler,
		WinnerHandler:   winnerHandler,
		BotJudgeHandler: botJudgeHandler,
		ActivityHandler: activityHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildJudge(cfg config.Config, logger zerolog.Logger) ai.Judge {
	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn().Msg("openai api key missing, bot judging disabled")
			return nil
		}
		judge, err := ai.NewOpenAIJudge(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to build openai judge, bot judging disabled")
			return nil
		}
		return judge
	case "anthropic":
		judge, err := ai.NewAnthropicJudge(ai.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AIModel,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to build anthropic judge, bot judging disabled")
			return nil
		}
		return judge
	default:
		logger.Warn().Str("provider", cfg.AIProvider).Msg("unknown ai provider, bot judging disabled")
		return nil
	}
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
