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

	"github.com/dmorneau/carebell/internal/backup"
	"github.com/dmorneau/carebell/internal/database"
	"github.com/dmorneau/carebell/internal/email"
	"github.com/dmorneau/carebell/internal/logging"
	"github.com/dmorneau/carebell/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := env("CAREBELL_PORT", "8080")
	dbPath := env("CAREBELL_DB_PATH", "carebell.db")

	logger := logging.Setup(env("CAREBELL_LOG_LEVEL", "info"), env("CAREBELL_LOG_FORMAT", "text"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(os.Getenv("CAREBELL_POSTMARK_TOKEN"), env("CAREBELL_EMAIL_FROM", "hello@carebell.app"))
	if !emailClient.Configured() {
		logger.Warn("postmark token not set, login code emails cannot be sent")
	}

	backupCfg := backup.Config{
		DBPath: dbPath,
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CAREBELL_S3_ENDPOINT"),
			Bucket:    os.Getenv("CAREBELL_S3_BUCKET"),
			Region:    env("CAREBELL_S3_REGION", "auto"),
			AccessKey: os.Getenv("CAREBELL_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CAREBELL_S3_SECRET_KEY"),
		},
	}

	pushCfg := server.PushConfig{
		VAPIDPublicKey:  os.Getenv("CAREBELL_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CAREBELL_VAPID_PRIVATE_KEY"),
		Subscriber:      env("CAREBELL_VAPID_SUBSCRIBER", "mailto:hello@carebell.app"),
	}

	srv := server.New(db, emailClient, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	srv.PushScheduler().Start(ctx)

	// Expired sessions and login codes pile up otherwise.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				if _, err := srv.LoginCodeStore().DeleteExpired(); err != nil {
					logger.Error("login code cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Carebell running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
	cancel()
	srv.PushScheduler().Stop()
	srv.BackupManager().Stop()
}
