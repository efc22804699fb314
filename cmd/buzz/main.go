package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-logr/stdr"
	"github.com/joho/godotenv"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/config"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/middleware"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/server"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

func main() {
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)).WithName("buzz")

	if len(os.Args) > 1 && os.Args[1] == "session" {
		if err := issueSession(os.Args[2:]); err != nil {
			logger.Error(err, "issue session")
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Error(err, "invalid configuration")
		os.Exit(2)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Error(err, "server setup failed")
		os.Exit(1)
	}
	go func() {
		if err := srv.Run(); err != nil {
			logger.Error(err, "server error")
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server shutdown error")
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// issueSession prints a session token for operators and local testing:
//
//	buzz session -role admin -id 1
func issueSession(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("session", flag.ExitOnError)
	role := fs.String("role", string(middleware.RoleUser), "user, business or admin")
	id := fs.Int64("id", 0, "user or business id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch middleware.Role(*role) {
	case middleware.RoleUser, middleware.RoleBusiness, middleware.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", *role)
	}
	if *id <= 0 {
		return fmt.Errorf("id must be positive")
	}

	key, err := token.DeriveKey(os.Getenv("SECRET_KEY"), server.SessionKeyPurpose)
	if err != nil {
		return fmt.Errorf("SECRET_KEY: %w", err)
	}
	raw, err := middleware.GenerateToken(middleware.Principal{ID: *id, Role: middleware.Role(*role)}, key)
	if err != nil {
		return err
	}
	fmt.Println(raw)
	return nil
}
