package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-replica/internal/auth"
	cartsvc "storefront-replica/internal/cart"
	"storefront-replica/internal/changefeed"
	"storefront-replica/internal/config"
	"storefront-replica/internal/db"
	"storefront-replica/internal/httpserver"
	"storefront-replica/internal/identity"
	ordersvc "storefront-replica/internal/order"
	"storefront-replica/internal/pricing"
	addressrepo "storefront-replica/internal/repository/address"
	cartrepo "storefront-replica/internal/repository/cart"
	categoryrepo "storefront-replica/internal/repository/category"
	orderrepo "storefront-replica/internal/repository/order"
	productrepo "storefront-replica/internal/repository/product"
	tokenrepo "storefront-replica/internal/repository/token"
	userrepo "storefront-replica/internal/repository/user"
	"storefront-replica/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	feed := changefeed.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if feed != nil {
		defer feed.Close()
	}

	userRepo := userrepo.NewPostgres(dbpool, feed, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, feed, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool)
	addressRepo := addressrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, feed, logger)

	authService := auth.New(userRepo, tokenRepo, logger, auth.Options{
		JWTSecret:      cfg.JWTSecret,
		AccessTTL:      cfg.AccessTTL,
		RefreshTTL:     cfg.RefreshTTL,
		ResendCooldown: cfg.ResendCooldown,
	})

	calculator := pricing.NewCalculator(cfg.TaxRate)
	cartService := cartsvc.New(cartRepo, calculator, logger)
	orderService := ordersvc.New(orderRepo, cartService, logger)

	manager := identity.NewManager(authService, userRepo, addressRepo, orderRepo, orderRepo, logger)
	manager.Initialize()
	defer manager.Close()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if consumer := changefeed.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "identity-sync", logger); consumer != nil {
		defer consumer.Close()
		go func() {
			if err := consumer.Consume(consumerCtx, manager.HandleRowChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("change consumer stopped: %v", err)
			}
		}()
	}

	files, err := storage.NewLocal(cfg.FileStorageDir, cfg.FileURLHost)
	if err != nil {
		logger.Fatalf("init file storage: %v", err)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:       authService,
		Identity:   manager,
		Cart:       cartService,
		Orders:     orderService,
		Users:      userRepo,
		Products:   productRepo,
		Categories: categoryRepo,
		Addresses:  addressRepo,
		Files:      files,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
