package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/dmarkin/tillpos/config"
	"github.com/dmarkin/tillpos/internal/auth"
	"github.com/dmarkin/tillpos/internal/gateway"
	handler "github.com/dmarkin/tillpos/internal/handler/http"
	"github.com/dmarkin/tillpos/internal/middleware"
	"github.com/dmarkin/tillpos/internal/repository"
	"github.com/dmarkin/tillpos/internal/repository/postgres"
	"github.com/dmarkin/tillpos/internal/service"
	"github.com/dmarkin/tillpos/internal/worker"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// newLogger creates logger with log level
func newLogger(level string) (*zap.Logger, error) {

	loggerLvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	loggerCfg := zap.NewProductionConfig()
	loggerCfg.Level = loggerLvl

	return loggerCfg.Build()
}

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	err = db.Migrate()
	if err != nil {
		logger.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.AuthTokenKey)
	if err != nil {
		logger.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// card gateway
	cardGateway := gateway.NewClient(cfg.CardGatewayAddr)

	// dependency injection
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	giftcardRepo := repository.NewGiftcardRepository(db)
	taxRateRepo := repository.NewTaxRateRepository(db)

	taxResolver := service.NewTaxRateResolver(taxRateRepo)
	calculator := service.NewTotalsCalculator(orderRepo, paymentRepo, taxResolver)
	validator := service.NewPaymentValidator(giftcardRepo)

	settlementService := service.NewSettlementService(orderRepo, paymentRepo, giftcardRepo, cardGateway, calculator, validator, db, logger)
	settlementHandler := handler.NewSettlementHandler(settlementService)

	refundService := service.NewRefundService(orderRepo, paymentRepo, giftcardRepo, db, logger)
	refundHandler := handler.NewRefundHandler(refundService)

	giftcardService := service.NewGiftcardService(giftcardRepo)
	giftcardHandler := handler.NewGiftcardHandler(giftcardService)

	// reconcile card charges whose outcome was lost to a timeout
	reconciler := worker.NewChargeReconciler(paymentRepo, cardGateway, logger)
	go reconciler.Run(ctx)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger))

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Get("/api/orders/{orderID}/totals", settlementHandler.GetOrderTotals())
		group.Post("/api/orders/{orderID}/close", settlementHandler.CloseOrder())
		group.Post("/api/orders/{orderID}/close/split", settlementHandler.CloseOrderSplit())
		group.Post("/api/orders/{orderID}/cancel", settlementHandler.CancelOrder())
		group.Post("/api/orders/{orderID}/refunds", refundHandler.CreateRefund())
		group.Get("/api/orders/{orderID}/refunds", refundHandler.ListRefunds())
		group.Get("/api/giftcards/{code}", giftcardHandler.GetGiftcard())
	})

	logger.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}
