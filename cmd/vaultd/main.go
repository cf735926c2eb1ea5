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

	"github.com/techgaint000/SecureAccountManager/internal/config"
	"github.com/techgaint000/SecureAccountManager/internal/database"
	"github.com/techgaint000/SecureAccountManager/internal/logging"
	"github.com/techgaint000/SecureAccountManager/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		SessionTTL: cfg.SessionLifetime(),
		BcryptCost: cfg.BcryptCost,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background cleanup of expired sessions and stale rate-limit entries
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		fmt.Printf("SecureVault running at http://localhost%s\n", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
