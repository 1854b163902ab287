package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rofl/api"
	"rofl/auth"
	"rofl/eventlog"
	"rofl/internal"
	"rofl/moderation"
	"rofl/repositories"
	"rofl/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Document store (MongoDB)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, config.MongoTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connection failed: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	defer func() {
		log.Info("Disconnecting from MongoDB...")
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(config.MongoDatabase)

	// 3. Event log (BadgerDB-backed relay)
	eventDB, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("event log opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing event log...")
		_ = eventDB.Close()
	}()

	// 4. Moderation
	mask, err := config.CensorRune()
	if err != nil {
		return err
	}
	words, err := loadCensoredWords(config.CensoredWordsFile)
	if err != nil {
		return err
	}
	censor, err := moderation.NewModerator(words, mask)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 5. Repositories, gateway, services
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	eventLog := eventlog.NewBadgerLog(eventDB, log)
	users := repositories.NewUserRepository(db)
	chats := repositories.NewChatRepository(db)
	gateway := repositories.NewChatGateway(chats, eventLog, log)

	userService := services.NewUserService(users, tokens, log)
	membershipService := services.NewMembershipService(users, gateway, censor, config.MaxContentLength, log)
	feedService := services.NewFeedService(users, gateway, log)

	// 6. HTTP server
	handlers := api.NewHandlers(userService, membershipService, feedService, log)
	router := api.SetupRouter(handlers, tokens)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

// loadCensoredWords reads one word per line; a missing path disables the
// censor.
func loadCensoredWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("censored words file: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			words = append(words, line)
		}
	}
	return words, nil
}
