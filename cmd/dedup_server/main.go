package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incidentdedup/database"
	"incidentdedup/internal/config"
	"incidentdedup/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewDedupDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open deduplication database: %v", err)
	}
	defer db.Close()

	srv := server.NewServer(cfg, db)

	// Корректная остановка по SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}

	log.Println("Сервер остановлен")
}
