// File: easyservice/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easyservice/config"
	"easyservice/cron"
	"easyservice/database"
	activityRepo "easyservice/database/repository/activity"
	bookingRepo "easyservice/database/repository/booking"
	counterRepo "easyservice/database/repository/counter"
	userRepo "easyservice/database/repository/user"
	"easyservice/handlers"
	"easyservice/middleware"
	"easyservice/routes"
	"easyservice/services/booking"
	"easyservice/services/conversation"
	"easyservice/services/session"
	"easyservice/services/tasks"
	"easyservice/services/whatsapp"
	"easyservice/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if err := cfg.Validate(); err != nil {
		logger.Sugar().Fatalf("main: invalid configuration: %v", err)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	db := database.DB()

	// repositories.
	users := userRepo.NewMongoUserRepo(db)
	bookings := bookingRepo.NewMongoBookingRepo(db)
	counters := counterRepo.NewMongoCounterRepo(db)
	activity := activityRepo.NewMongoActivityLog(db)

	// conversation working memory.
	var (
		sessions     session.Store
		redisClients []*redis.Client
	)
	switch cfg.SessionBackend {
	case "memory":
		mem, err := session.NewMemoryStore(cfg.SessionTTL)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to create in-memory session store: %v", err)
		}
		defer mem.Close()
		sessions = mem
	default:
		client := utils.GetSessionCacheClient()
		redisClients = append(redisClients, client)
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	}

	gateway, err := whatsapp.NewClient(cfg.WhatsAppPhoneNumberID, cfg.WhatsAppToken,
		whatsapp.WithBaseURL(cfg.WhatsAppBaseURL),
		whatsapp.WithAPIVersion(cfg.WhatsAppAPIVersion),
		whatsapp.WithLogger(logger),
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create WhatsApp client: %v", err)
	}

	finalizer := booking.NewFinalizer(bookings, counters, activity, cfg.TicketPrefix, logger)

	// slot re-prompts.
	var (
		scheduler   conversation.Scheduler
		local       *conversation.LocalScheduler
		taskClient  *asynq.Client
		repromptSrv *asynq.Server
	)
	if cfg.RepromptBackend == "asynq" {
		taskClient = asynq.NewClient(cron.QueueRedisOpt())
		scheduler = tasks.NewScheduler(taskClient)
	} else {
		local = conversation.NewLocalScheduler(logger)
		scheduler = local
	}

	engine, err := conversation.NewEngine(conversation.Deps{
		Users:     users,
		Sessions:  sessions,
		Profiles:  bookings,
		Activity:  activity,
		Finalizer: finalizer,
		Gateway:   gateway,
		Scheduler: scheduler,
		Logger:    logger,
	}, conversation.Options{
		BusinessName:   cfg.BusinessName,
		SlotOfferCount: cfg.SlotOfferCount,
		RepromptDelay:  cfg.SlotRepromptDelay,
	})
	if err != nil {
		logger.Sugar().Fatalf("main: failed to build conversation engine: %v", err)
	}
	if local != nil {
		local.Bind(engine.RepromptSlot)
	} else {
		repromptSrv = cron.InitRepromptWorker(engine, logger)
	}

	webhookHandler := handlers.NewWebhookHandler(engine, cfg.VerifyToken)
	ticketHandler := handlers.NewTicketHandler(bookings)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		VerifyWebhookHandler:  webhookHandler.VerifyWebhookHandler,
		ReceiveWebhookHandler: webhookHandler.ReceiveWebhookHandler,
		ListTicketsHandler:    ticketHandler.ListTicketsHandler,
		HealthHandler:         handlers.HealthHandler(cfg.WhatsAppToken != "" && cfg.WhatsAppPhoneNumberID != ""),
	}

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle, cfg.AppSecret, cfg.JWTSecret)

	utils.StartHealthMonitor(rootCtx, 30*time.Second, redisClients, database.MongoClient)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	// In-flight turns finish before their dependencies go away.
	webhookHandler.Wait()
	if local != nil {
		local.Wait()
	}
	if repromptSrv != nil {
		repromptSrv.Shutdown()
	}
	if taskClient != nil {
		if err := taskClient.Close(); err != nil {
			logger.Warn("main: failed to close task client", zap.Error(err))
		}
	}
	stop()
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
