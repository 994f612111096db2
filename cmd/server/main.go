package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/live"
	"github.com/skeebs10/settlr/internal/payments"
	"github.com/skeebs10/settlr/internal/server"
	"github.com/skeebs10/settlr/internal/service"
	"github.com/skeebs10/settlr/internal/settlement"
	"github.com/skeebs10/settlr/internal/storage/sqlite"
	"github.com/skeebs10/settlr/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	logging.Setup()

	addr := getEnv("ADDR", ":8080")
	dbPath := getEnv("DB_PATH", "./data/settlr.db")
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	hub := live.NewHub(slog.Default())
	tabs := service.NewTabService(store, hub, baseURL,
		settlement.DefaultGraceWindow, settlement.DefaultNudgeCooldown)

	staffHashes, err := staffCredentials()
	if err != nil {
		slog.Error("Failed to load staff credentials", "error", err)
		os.Exit(1)
	}
	jwt := auth.NewJWTManager(jwtSecret, 12*time.Hour)
	sessions := service.NewSessionService(store, tabs, jwt,
		auth.NewStaffAuthenticator(staffHashes), baseURL)

	var provider payments.Provider
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		provider = payments.NewStripeProvider(payments.Config{SecretKey: key})
		slog.Info("Stripe payments enabled")
	} else {
		provider = payments.NewFakeProvider()
		slog.Warn("STRIPE_SECRET_KEY not set, using fake payment provider")
	}
	pay := service.NewPaymentService(tabs, provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Getenv("SEED_DEMO") == "true" {
		tab, err := service.SeedDemoTab(ctx, tabs)
		if err != nil {
			slog.Error("Failed to seed demo tab", "error", err)
			os.Exit(1)
		}
		slog.Info("Join the demo tab", "url", tab.PublicTabURL)
	}

	srv := server.New(tabs, sessions, pay, jwt, hub)
	if err := srv.Run(ctx, addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// staffCredentials reads STAFF_USER / STAFF_PASSWORD into a one-account
// credential set, hashing the password at startup.
func staffCredentials() (map[string]string, error) {
	name := getEnv("STAFF_USER", "staff")
	password := getEnv("STAFF_PASSWORD", "")
	if password == "" {
		slog.Warn("STAFF_PASSWORD not set, staff login disabled")
		return map[string]string{}, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return map[string]string{name: hash}, nil
}
