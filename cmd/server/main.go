package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/storage"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	uploader, err := storage.NewLocalUploader(cfg.Uploads.Dir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	stockClient := service.NewStockClient(db, redisClient)
	flashSaleService := service.NewFlashSaleService(db, redisClient,
		time.Duration(cfg.Business.FlashSaleCacheSecs)*time.Second)
	loyaltyService := service.NewLoyaltyService(db, cfg.Business.CouponPointsCost, cfg.Business.CouponValue)
	referralService := service.NewReferralService(db, loyaltyService)
	catalogService := service.NewCatalogService(db)
	orderService := service.NewOrderService(db, eventPublisher, flashSaleService, uploader, cfg.Uploads.MaxSizeBytes)
	fulfillmentService := service.NewFulfillmentService(db, stockClient, eventPublisher)
	membershipService := service.NewMembershipService(db, eventPublisher, uploader, cfg.Uploads.MaxSizeBytes)
	rewardsOrchestrator := service.NewRewardsOrchestrator(db, loyaltyService, referralService, eventPublisher)

	ctx := context.Background()
	if err := stockClient.SyncStockToRedis(ctx); err != nil {
		log.Printf("Failed to sync stock to Redis: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	rewardsConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	rewardsWorker := worker.NewRewardsWorker(rewardsConsumer, rewardsOrchestrator)
	go func() {
		if err := rewardsWorker.Start(workerCtx); err != nil {
			log.Printf("Rewards worker error: %v", err)
		}
	}()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, "notification-group")
	notificationWorker := worker.NewNotificationWorker(notifyConsumer, redisClient)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	sweeper := worker.NewMembershipSweeper(membershipService,
		time.Duration(cfg.Business.MembershipSweepSecs)*time.Second)
	go func() {
		if err := sweeper.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Membership sweeper error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Static("/uploads", cfg.Uploads.Dir)
	handler := api.NewHandler(
		orderService,
		fulfillmentService,
		loyaltyService,
		referralService,
		flashSaleService,
		membershipService,
		catalogService,
		stockClient,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	rewardsWorker.Stop()
	notificationWorker.Stop()

	log.Println("Server exited")
}
