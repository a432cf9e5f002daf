package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yunusinusah/offline-voting/internal/app/bootstrap"
)

// @title Offline Voting API
// @version 1.0
// @description Voter codes, ballot casting and the admin event stream.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP and, unless disabled, run the election clock.
func main() {
	log.Println("offline-voting api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		log.Printf("api shutdown close failed: %v", err)
	}
	if runErr != nil {
		log.Fatalf("offline-voting api stopped with error: %v", runErr)
	}
}
