package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/tiffinclub/tiffin/internal/events"
	"github.com/tiffinclub/tiffin/internal/mongo"
	"github.com/tiffinclub/tiffin/internal/tiffin"
	"github.com/tiffinclub/tiffin/pkg"
)

const (
	appNamespace = "TIFFIN"
	appName      = "tiffin"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// Initialize repositories
	customerRepo := mongo.NewCustomerRepo(config, logger)
	subscriptionRepo := mongo.NewSubscriptionRepo(customerRepo, logger)
	attendanceRepo := mongo.NewAttendanceRepo(customerRepo, logger)
	paymentRepo := mongo.NewPaymentRepo(customerRepo, logger)
	priceListRepo := mongo.NewPriceListRepo(customerRepo, logger)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("Cannot connect to NATS publisher: %v", err)
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		log.Fatalf("Cannot connect to NATS subscriber: %v", err)
	}

	cache := tiffin.NewBalanceCache(tiffin.DefaultBalanceTTL, logger)
	activitySubscriber := events.NewActivitySubscriber(subscriber, cache, logger)

	biller := tiffin.NewBiller(customerRepo, subscriptionRepo, attendanceRepo, paymentRepo, priceListRepo, cache, logger)

	customerHandler := tiffin.NewCustomerHandler(customerRepo, subscriptionRepo, attendanceRepo, paymentRepo, publisher, config, logger)
	ledgerHandler := tiffin.NewLedgerHandler(customerRepo, attendanceRepo, paymentRepo, publisher, config, logger)
	billingHandler := tiffin.NewBillingHandler(biller, customerRepo, priceListRepo, cache, config, logger)

	// Setup seeding hooks
	seedHooks := apt.LifecycleHooks{
		OnStart: tiffin.SeedingFunc(appName, customerRepo.GetDatabase, logger),
	}

	// Setup middleware
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", customerHandler, ledgerHandler, billingHandler),
		apt.WithLifecycle(customerRepo, subscriptionRepo, attendanceRepo, paymentRepo, priceListRepo, seedHooks, activitySubscriber),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
