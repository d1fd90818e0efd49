package main

import (
	"fmt"
	"net/http"
	"time"

	"survey-insights-go/internal/api"
	"survey-insights-go/internal/config"
	"survey-insights-go/internal/dataset"
	"survey-insights-go/internal/logger"
)

func main() {
	cfg := config.Load() // loads .env

	log := logger.New()
	log.Info("starting service")

	board, err := config.LoadDashboard(cfg.DashboardPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load dashboard config")
	}
	source := "responses_api"
	if cfg.DatasetPath != "" {
		source = cfg.DatasetPath
	}
	log.WithField("tables", len(board.Tables)).WithField("source", source).Info("dashboard configured")

	srv := &api.Server{
		Load:   dataset.NewLoader(cfg),
		Tables: board.Tables,
		Log:    log,
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
