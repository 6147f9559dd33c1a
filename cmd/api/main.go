package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techtrove/internal/auth"
	"techtrove/internal/cache"
	"techtrove/internal/config"
	"techtrove/internal/database"
	"techtrove/internal/handler"
	"techtrove/internal/payment"
	"techtrove/internal/repository"
	"techtrove/internal/router"
	"techtrove/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.Env).Msg("starting techtrove API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL, "techtrove")
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
		defer redisCache.Close()

		productRepo = repository.NewCachedProductRepository(productRepo, redisCache, cfg.Redis.TTL, logger)
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("product cache enabled")
	}

	var payments payment.Gateway
	if cfg.Payment.Enabled() {
		payments = payment.NewStripeGateway(cfg.Payment.StripeSecretKey, nil, logger)
	} else {
		payments = payment.NewDisabledGateway()
		logger.Warn().Msg("no payment provider configured, card orders will be rejected")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, payments, cfg.Payment.Currency, logger)
	userService := service.NewUserService(userRepo, tokens, logger)

	dev := cfg.IsDevelopment()
	mux := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(userService, logger, dev),
		Product: handler.NewProductHandler(productService, logger, dev),
		Order:   handler.NewOrderHandler(orderService, logger, dev),
		User:    handler.NewUserHandler(userService, logger, dev),
	}, tokens, router.Options{
		CORSOrigin:  cfg.Server.CORSOrigin,
		Development: dev,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
