package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dbelyaev/cloudstash/internal/server"
	"github.com/dbelyaev/cloudstash/internal/server/config"
)

func main() {

	// Missing .env is fine; flags and the JSON overlay still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
