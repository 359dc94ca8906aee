package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hanbit-edu/hanbit-server/pkg/api"
	"github.com/hanbit-edu/hanbit-server/pkg/config"
	"github.com/hanbit-edu/hanbit-server/pkg/db"
	"github.com/hanbit-edu/hanbit-server/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo := db.NewProgressRepo(db.DB)
	router := api.NewRouter(repo, config.AppConfig.Server.CorsAllowedOrigin)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(config.AppConfig.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server cleanly", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
