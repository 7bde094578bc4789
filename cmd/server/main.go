package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/beaconchat/beacon/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	hub := server.NewHub(cfg, logger)
	go hub.Run()

	router := server.NewRouter(hub, cfg, logger)
	srv := server.CreateServer(cfg.Addr(), router)

	if err := server.Run(ctx, srv, hub, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
