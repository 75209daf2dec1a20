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
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/config"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/database"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/handler"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/middleware"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/models"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/repository"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/router"
	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/service"
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

	if err := db.AutoMigrate(&models.Conversation{}, &models.ConversationUser{}, &models.Message{}, &models.MessageRead{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	messageReadRepo := repository.NewMessageReadRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	registry := service.NewPresenceRegistry(logger)
	lastMessageCache := service.NewLastMessageCache(redisClient, "chat:last_message", cfg.LastMessageTTL, logger)

	conversationService := service.NewConversationService(conversationRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, registry, natsConn, cfg.NATSSubject, validate, logger)
	messageService := service.NewMessageService(messageRepo, conversationRepo, conversationService, registry, notificationService, lastMessageCache, validate, logger)
	readReceiptService := service.NewReadReceiptService(messageRepo, messageReadRepo, conversationRepo, conversationService, registry, notificationService, validate, logger)
	summaryService := service.NewChatSummaryService(conversationRepo, messageRepo, lastMessageCache, logger)
	gateway := service.NewSocketGateway(registry, notificationService, logger)

	conversationHandler := handler.NewConversationHandler(conversationService, messageService, logger)
	messageHandler := handler.NewMessageHandler(messageService, readReceiptService, logger)
	chatHandler := handler.NewChatHandler(summaryService, gateway, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(shutdownCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ConversationHandler: conversationHandler,
		MessageHandler:      messageHandler,
		ChatHandler:         chatHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(shutdownCtx, app)
}

func waitForShutdown(shutdownCtx context.Context, app *fiber.App) {
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
