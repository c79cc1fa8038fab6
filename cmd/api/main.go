package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohammadpnp/csv-import/internal/bootstrap"
	"github.com/mohammadpnp/csv-import/internal/config"
	"github.com/mohammadpnp/csv-import/internal/logging"
)

func main() {
	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel)

	a, err := bootstrap.New(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer a.Close()

	server := a.HTTPServer()
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var workers sync.WaitGroup
	if cfg.Worker.Enabled {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := a.Worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("import worker stopped")
			}
		}()
		log.WithField("workers", cfg.Worker.Workers).Info("import worker started")
	}

	go func() {
		log.WithField("addr", cfg.Address()).Info("http server listening")
		if err := server.Start(cfg.Address()); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	workers.Wait()
	log.Info("stopped")
}
