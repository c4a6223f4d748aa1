package main

import (
	"log"

	"github.com/andreyxaxa/analytics-bridge/config"
	"github.com/andreyxaxa/analytics-bridge/internal/app"
)

func main() {
	// Config
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	app.RunProducer(cfg)
}
