// Command bbooks-emulator runs a local emulator of the property accounting
// backend for development and testing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shweproperty/buildingbooks/internal/emulator/api"
	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/internal/emulator/store"
)

const (
	defaultPort   = "8080"
	defaultDBPath = "./data/bbooks-emulator.db"
	defaultSecret = "bbooks-emulator-dev-secret"
)

func main() {
	// Setup structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	st, err := store.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", dbPath)

	if err := seedAdminUser(st); err != nil {
		slog.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(st, []byte(secret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("emulator listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// seedAdminUser ensures a default login exists on a fresh database.
func seedAdminUser(st *store.Store) error {
	if _, err := st.GetUserByUsername("admin"); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}
	_, err := st.CreateUser(models.User{
		Name:     "Administrator",
		Username: "admin",
		Password: password,
	})
	if err == nil {
		slog.Info("seeded default admin user", "username", "admin")
	}
	return err
}
