package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amirkenesbay/auth-service/internal/config"
	"github.com/amirkenesbay/auth-service/internal/db"
	"github.com/amirkenesbay/auth-service/internal/events"
	"github.com/amirkenesbay/auth-service/internal/httpserver"
	"github.com/amirkenesbay/auth-service/internal/logging"
	"github.com/amirkenesbay/auth-service/internal/middleware"
	"github.com/amirkenesbay/auth-service/internal/repo"
	"github.com/amirkenesbay/auth-service/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	store := &repo.GormRepo{DB: gdb}

	authHTTP := &httpserver.AuthHTTP{
		Svc: &service.AuthService{
			Users:      store,
			Tokens:     store,
			Events:     producer,
			JWTSecret:  cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: authHTTP,
		JWTSecret:   cfg.JWTSecret,
	})

	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
