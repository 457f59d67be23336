package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"queryproxy/internal/api"
	"queryproxy/internal/config"
	"queryproxy/internal/data"
	"queryproxy/internal/logger"
	"queryproxy/internal/service"
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
	fmt.Println("queryproxy - SQL query proxy server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  queryproxy                              Start the server")
	fmt.Println("  queryproxy reset-password -email <addr> Reset a user's password (interactive)")
	fmt.Println("  queryproxy help                         Show this help")
}

func handleResetPassword(args []string) {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "Email of the account to reset")
	fs.Parse(args)

	if *email == "" {
		fmt.Println("Usage: queryproxy reset-password -email <addr>")
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

	db, err := data.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	authSvc := service.NewAuthService(data.NewUserRepo(db))
	if err := authSvc.ResetPassword(context.Background(), *email, password); err != nil {
		fmt.Printf("Failed to reset password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for '%s' has been reset successfully.\n", *email)
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	logger.Log.Info().Int("port", cfg.Port).Msg("starting queryproxy")

	db, err := data.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}
	defer db.Close()

	userRepo := data.NewUserRepo(db)
	configRepo := data.NewConfigRepo(db)
	logRepo := data.NewLogRepo(db)

	cipher, err := service.NewCredentialCipher(cfg.JWTSecret)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to init credential cipher")
	}

	tokens := service.NewTokenManager(cfg.JWTSecret)
	authSvc := service.NewAuthService(userRepo)
	analyzer := service.NewAnalyzerClient(cfg.AnalyzerURL)
	dispatcher := service.NewDispatcher(analyzer, logRepo)
	executor := service.NewQueryExecutor()

	if cfg.AnalyzerURL == "" {
		logger.Log.Warn().Msg("ANALYZER_URL not set; query analysis will be degraded")
	}

	router := api.NewRouter(api.RouterDeps{
		Auth:    api.NewAuthHandler(authSvc, tokens, cfg.Production),
		Config:  api.NewConfigHandler(configRepo, cipher, service.OpenTenantPool),
		Query:   api.NewQueryHandler(configRepo, cipher, executor, service.OpenTenantPool, dispatcher, logRepo),
		Health:  api.NewHealthHandler(db),
		Guard:   api.NewAuthMiddleware(tokens, authSvc),
		Origins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("server startup failed")
		}
	}()

	<-stop
	logger.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("server shutdown error")
	}
	logger.Log.Info().Msg("server stopped")
}
