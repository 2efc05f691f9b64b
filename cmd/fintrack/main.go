package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"fintrack/internal/api"
	"fintrack/internal/config"
	"fintrack/internal/data"
	"fintrack/internal/logger"
	"fintrack/internal/service"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "reset-password":
			handleResetPassword(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	startServer()
}

func printHelp() {
	fmt.Println("FinTrack - Personal Finance Server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fintrack                           Start the server")
	fmt.Println("  fintrack reset-password -u <user>  Reset a user's password (interactive)")
	fmt.Println("  fintrack help                      Show this help")
}

func handleResetPassword(args []string) {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	username := fs.String("u", "", "Username to reset")
	fs.Parse(args)

	if *username == "" {
		fmt.Println("Usage: fintrack reset-password -u <username>")
		os.Exit(1)
	}

	fmt.Print("New password: ")
	passBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}
	password := string(passBytes)

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}
	if password != string(confirmBytes) {
		fmt.Println("Passwords do not match.")
		os.Exit(1)
	}
	if password == "" {
		fmt.Println("Password cannot be empty.")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	registry, db, err := buildRegistry(cfg)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	defer registry.Close()

	authSvc := service.NewAuthService(registry)
	if err := authSvc.ResetPassword(context.Background(), *username, password); err != nil {
		fmt.Printf("Failed to reset password: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Password for user '%s' has been reset successfully.\n", *username)
}

// buildRegistry opens the bootstrap store and reconnects the active database.
func buildRegistry(cfg *config.Config) (*service.Registry, *sql.DB, error) {
	db, err := data.InitDB(cfg.MetaDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init metadata store: %w", err)
	}

	cryptoSvc, err := service.NewEncryptionService(cfg.SecretKey)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	configRepo := data.NewConfigRepo(db, cryptoSvc)
	migrationRepo := data.NewMigrationRepo(db)
	registry := service.NewRegistry(configRepo, migrationRepo)

	if err := registry.Restore(context.Background()); err != nil {
		logger.Error.Printf("could not restore active database: %v", err)
	}
	return registry, db, nil
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\nCheck .env file or FINTRACK_KEY environment variable.\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogDir); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info.Println("Starting FinTrack...")

	db, err := data.InitDB(cfg.MetaDBPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init metadata store: %v", err)
	}
	defer db.Close()

	cryptoSvc, err := service.NewEncryptionService(cfg.SecretKey)
	if err != nil {
		logger.Error.Fatalf("Failed to init crypto service: %v", err)
	}

	configRepo := data.NewConfigRepo(db, cryptoSvc)
	migrationRepo := data.NewMigrationRepo(db)
	registry := service.NewRegistry(configRepo, migrationRepo)
	defer registry.Close()

	if err := registry.Restore(context.Background()); err != nil {
		logger.Error.Printf("could not restore active database: %v", err)
	}

	authSvc := service.NewAuthService(registry)
	initializer := service.NewInitializer(registry, configRepo)

	router := api.NewRouter(api.Deps{
		Registry:    registry,
		Auth:        authSvc,
		Initializer: initializer,
		SessionKey:  cfg.SecretKey,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info.Printf("Server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-stop
	logger.Info.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error.Printf("Server shutdown error: %v", err)
	}
	logger.Info.Println("Server stopped")
}
