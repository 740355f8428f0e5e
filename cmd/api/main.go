// Package main provides the entry point for the FridgeChef API server
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/container"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a config file")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading configuration")
	flag.Parse()

	// A missing .env is fine outside local development
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load %s: %v", *envFile, err)
	}

	app := fx.New(container.Module(*configPath))
	if err := app.Err(); err != nil {
		log.Printf("Failed to build application: %v", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Printf("Failed to start application: %v", err)
		return 1
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
		exitCode = 1
	}
	return exitCode
}
