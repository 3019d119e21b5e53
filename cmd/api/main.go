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

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/tareksakakini/SipLocal-sub003/internal/client"
	"github.com/tareksakakini/SipLocal-sub003/internal/config"
	"github.com/tareksakakini/SipLocal-sub003/internal/provider"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
	"github.com/tareksakakini/SipLocal-sub003/internal/server"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
	"github.com/tareksakakini/SipLocal-sub003/internal/worker"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitDBClient(cfg.DatabaseURL)

	squareClient := client.NewSquareClient(&cfg.Square)
	cloverClient := client.NewCloverClient(&cfg.Clover)
	braintreeClient := client.NewBraintreeClient(&cfg.Braintree)
	pushClient := client.NewPushClient(&cfg.Push)

	orderRepo := repository.NewOrderRepository(db)
	credRepo := repository.NewCredentialRepository(db)
	taskRepo := repository.NewCompletionTaskRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	providers := provider.NewFactory(squareClient, cloverClient, braintreeClient)

	credentialService := service.NewCredentialService(credRepo, squareClient)
	checkoutService := service.NewCheckoutService(
		db,
		orderRepo,
		taskRepo,
		credentialService,
		providers,
		cfg.Capture.Delay,
	)
	notificationService := service.NewNotificationService(deviceRepo, pushClient)
	webhookService := service.NewWebhookService(
		squareClient,
		orderRepo,
		webhookEventRepo,
		notificationService,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	captureWorker := worker.NewCaptureWorker(taskRepo, checkoutService, cfg.Capture.PollInterval, cfg.Capture.FallbackDelay)
	go captureWorker.Run(workerCtx)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutService, webhookService, credentialService, cfg.Admin.JWTSecret)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	workerCancel()

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
