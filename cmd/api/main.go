package main

import (
	"log"

	"venturesight-backend/internal/bootstrap"
	"venturesight-backend/internal/shared/config"
	"venturesight-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	scheduler, err := app.Sweeper.Start()
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	defer scheduler.Stop()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
