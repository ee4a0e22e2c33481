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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/canvas"
	"github.com/noah-isme/ingat-go-api/internal/config"
	"github.com/noah-isme/ingat-go-api/internal/database"
	"github.com/noah-isme/ingat-go-api/internal/handler"
	"github.com/noah-isme/ingat-go-api/internal/middleware"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/router"
	"github.com/noah-isme/ingat-go-api/internal/scheduler"
	"github.com/noah-isme/ingat-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Course{}, &models.Assignment{}, &models.StudyPlan{}, &models.UserAssignmentStatus{}, &models.WeekCompletionNotification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional fan-out transports. A single-node
	// deployment runs fine without either.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	gateway, err := canvas.NewClient(cfg.CanvasBaseURL, cfg.CanvasToken, logger)
	if err != nil {
		log.Fatalf("failed to create canvas client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	planRepo := repository.NewStudyPlanRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	weekNotifRepo := repository.NewWeekNotificationRepository(db)

	engine := service.NewReminderService(planRepo, assignmentRepo, statusRepo, weekNotifRepo, cfg.ReminderTolerance, logger)
	dispatcher := service.NewDispatchService(engine, redisClient, "ingat", natsConn, logger)
	syncService := service.NewSyncService(gateway, courseRepo, assignmentRepo, logger)
	digestService := service.NewDigestService(assignmentRepo, redisClient, cfg.DigestCacheTTL, logger)
	completionService := service.NewCompletionService(assignmentRepo, statusRepo, digestService, validate, logger)
	plannerService := service.NewPlannerService(planRepo, assignmentRepo, validate, cfg.DialogueTimeout, logger)
	weeklyService := service.NewWeeklyService(syncService, digestService, statusRepo, dispatcher, logger)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher.Start(rootCtx)

	tick := scheduler.NewTickDriver(cfg.TickInterval, dispatcher.RunTick, logger)
	weekly := scheduler.NewDailyDriver(cfg.WeeklyHour, cfg.WeeklyMinute, weeklyService.Run, logger)
	go tick.Run(rootCtx)
	go weekly.Run(rootCtx)

	syncHandler := handler.NewSyncHandler(syncService, logger)
	weekHandler := handler.NewWeekHandler(digestService, engine, logger)
	planHandler := handler.NewPlanHandler(plannerService, logger)
	completionHandler := handler.NewCompletionHandler(completionService, logger)
	plannerHandler := handler.NewPlannerHandler(plannerService, logger)
	reminderHandler := handler.NewReminderHandler(engine, validate, logger)
	streamHandler := handler.NewStreamHandler(dispatcher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SyncHandler:       syncHandler,
		WeekHandler:       weekHandler,
		PlanHandler:       planHandler,
		CompletionHandler: completionHandler,
		PlannerHandler:    plannerHandler,
		ReminderHandler:   reminderHandler,
		StreamHandler:     streamHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	cancel()

	ctx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
