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

	"github.com/grga023/latice-erp/config"
	"github.com/grga023/latice-erp/internal/api"
	"github.com/grga023/latice-erp/internal/broker"
	"github.com/grga023/latice-erp/internal/mailer"
	"github.com/grga023/latice-erp/internal/redisclient"
	"github.com/grga023/latice-erp/internal/service"
	"github.com/grga023/latice-erp/internal/store"
	"github.com/grga023/latice-erp/internal/util"
	"github.com/grga023/latice-erp/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting latice-erp")

	tp, err := util.InitTracer("latice-erp", cfg.Observ.JaegerEndpoint)
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

	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("Database connected")

	// The scan lock is optional; without Redis a single instance is assumed.
	var scanLocker worker.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Redis unavailable, running without scan lock: %v", err)
		} else {
			defer redisClient.Close()
			scanLocker = redisClient
			log.Println("Redis connected")
		}
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	smtpMailer := mailer.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Timeout)

	orderService := service.NewOrderService(db, eventPublisher)
	lagerService := service.NewLagerService(db)
	notifyService := service.NewNotifyService(db, smtpMailer, eventPublisher, nil)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifier := worker.NewNotifierWorker(notifyService, scanLocker, cfg.Notify.Interval)
	go func() {
		if err := notifier.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Notifier worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, lagerService, notifyService)
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

	log.Println("Server exited")
}
