package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"foundry/internal/app"
	"foundry/internal/config"
	"foundry/internal/fakeapi"
)

func main() {
	log := logrus.New()
	if err := config.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if l, err := app.NewLogger(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("keeping default log level")
	} else {
		log = l
	}

	srv := fakeapi.NewServer(fakeapi.NewStore(), fakeapi.Options{
		JWTSecret:  cfg.MockJWTSecret,
		SessionTTL: cfg.MockSessionTTL,
		Logger:     log,
	})

	httpServer := &http.Server{
		Addr:         cfg.MockListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.MockListenAddr).Info("dev API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
