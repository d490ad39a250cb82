package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"askpepper/app/server"
	"askpepper/types"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := server.NewServer(types.LoadConfig().ServerAddr)

	go s.Run(ctx)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	cancel()
	s.Stop()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}
}
