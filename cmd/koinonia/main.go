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

	"github.com/joho/godotenv"

	"github.com/calebhs/koinonia/internal/database"
	"github.com/calebhs/koinonia/internal/logging"
	"github.com/calebhs/koinonia/internal/push"
	"github.com/calebhs/koinonia/internal/server"
)

func main() {
	// Optional .env file for local development; real deployments set the
	// environment directly.
	godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "generate-vapid-keys" {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("KOINONIA_VAPID_PUBLIC_KEY=%s\nKOINONIA_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(os.Getenv("KOINONIA_LOG_LEVEL"), os.Getenv("KOINONIA_LOG_FORMAT"))

	port := os.Getenv("KOINONIA_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("KOINONIA_DB_PATH")
	if dbPath == "" {
		dbPath = "koinonia.db"
	}

	loc := time.Local
	if tz := os.Getenv("KOINONIA_TZ"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("invalid KOINONIA_TZ %q: %v", tz, err)
		}
		loc = l
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		VAPIDPublicKey:  os.Getenv("KOINONIA_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("KOINONIA_VAPID_PRIVATE_KEY"),
		Location:        loc,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		logger.Info("push notifications disabled, VAPID keys not set")
	}

	// Periodic housekeeping: expired sessions and stale rate limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
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
		logger.Info("koinonia listening", "port", port, "tz", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
