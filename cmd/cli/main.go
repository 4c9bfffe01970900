package main

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/id"
	"github.com/akeren/waitlist-api/pkg/migrations"
	"github.com/akeren/waitlist-api/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		down := len(args) > 1 && args[1] == "down"
		if err := runMigrations(logger, down); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "send-test-notification":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "send-test-notification requires an email address")
			printUsage()
			os.Exit(1)
		}
		if err := sendTestNotification(logger, args[1]); err != nil {
			logger.Error("Test notification failed", "error", err.Error())
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrations(logger *log.Logger, down bool) error {
	db, err := config.NewDatabase(logger, config.DefaultDBConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	migrationsDir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := migrations.Config{Dir: migrationsDir, Logger: logger}
	if down {
		return migrations.Down(ctx, sqlDB, cfg)
	}
	return migrations.Up(ctx, sqlDB, cfg)
}

// sendTestNotification runs the signup fan-out for a synthetic entry that is never persisted,
// exercising the configured transport, test-mode redirect and credentials end to end.
func sendTestNotification(logger *log.Logger, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email %q: %w", email, err)
	}

	settings, err := config.LoadNotificationSettings()
	if err != nil {
		return err
	}

	dispatcher, err := config.NewNotificationDispatcher(logger, settings, nil)
	if err != nil {
		return err
	}

	createdAt := time.Now().UTC()
	entry := &models.WaitlistEntry{
		ID:           id.NewAt(createdAt),
		Email:        email,
		WaitListCode: "cli-test",
		Preferences:  []string{},
		CreatedAt:    createdAt,
	}

	failed := 0
	for _, outcome := range dispatcher.Notify(context.Background(), entry) {
		fmt.Printf("%-8s %-6s to=%s\n", outcome.Kind, outcome.Status(), outcome.To)
		if !outcome.Succeeded() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of 2 notifications failed", failed)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [down]                  Apply (or revert) database migrations and exit")
	fmt.Println("  send-test-notification <email>  Send the welcome and operator alert for a synthetic signup")
}
