// Package main runs the Bookly API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bookly-io/bookly/internal/app"
	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/config"
	"github.com/bookly-io/bookly/internal/httpapi"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/metrics"
	"github.com/bookly-io/bookly/internal/middleware"
	"github.com/bookly-io/bookly/internal/storage/postgres"
)

func main() {
	log := logging.NewDefault("bookly")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()

		if err := postgres.RunMigrations(db, cfg.MigrationsPath); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}

		store := postgres.New(db)
		stores = app.Stores{
			Users:      store,
			Authors:    store,
			Publishers: store,
			Books:      store,
			Members:    store,
			Loans:      store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	application := app.New(stores, issuer, log)
	authMW := middleware.NewAuthMiddleware(issuer, log)
	m := metrics.New()

	handler := httpapi.NewHandler(application, authMW, m)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log)
	limiter.StartCleanup(time.Minute)

	var origins []string
	if cfg.CORSOrigins != "" {
		origins = strings.Split(cfg.CORSOrigins, ",")
	}
	cors := middleware.NewCORSMiddleware(origins)

	// Order matters: request id first so every later stage logs with it.
	chained := middleware.RequestIDMiddleware(log)(handler)
	chained = limiter.Handler(chained)
	chained = cors.Handler(chained)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      chained,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	log.Info("server stopped")
}
