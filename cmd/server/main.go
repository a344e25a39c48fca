package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gestao-app/internal/auth"
	"gestao-app/internal/config"
	"gestao-app/internal/db"
	"gestao-app/internal/server"
	"gestao-app/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()
	auth.SetSecret(cfg.SecretKey)

	database, err := db.ConnectAndMigrate(db.Options{
		DSN:        cfg.DatabaseDSN,
		Migrations: cfg.Migrations,
		Seed:       cfg.Seed,
	})
	if err != nil {
		log.Fatalf("database setup: %v", err)
	}
	if *migrateOnly {
		log.Println("migrations applied, exiting")
		return
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTPUser != "" {
		mailer = &services.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			Sender:   cfg.MailSender,
		}
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	handler := server.New(database, server.Options{
		Mailer:         mailer,
		BaseURL:        baseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (%s)", srv.Addr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server stopped")
}
