package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"lapboard/internal/api"
	"lapboard/internal/config"
	"lapboard/internal/export"
	"lapboard/internal/leaderboard"
	"lapboard/internal/live"
	"lapboard/internal/metrics"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func main() {
	configPath := flag.String("config", os.Getenv("LAPBOARD_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Could not load config")
	}

	cfg.ConfigureLogging()

	store := leaderboard.NewStore(cfg.Retention())
	exporter := export.NewExporter(cfg.Export.Dir)
	m := metrics.New()
	hub := live.NewHub(func(clients int) {
		m.LiveClients.Set(float64(clients))
	})

	logrus.WithFields(logrus.Fields{
		"retention":  store.Retention(),
		"export_dir": exporter.Dir(),
		"static_dir": cfg.Static.Dir,
	}).Info("Starting lapboard")

	srv := &http.Server{
		Addr:         cfg.HTTP.Listen,
		Handler:      api.NewRouter(api.New(store, exporter, hub, m), cfg.Static.Dir),
		ReadTimeout:  seconds(cfg.HTTP.ReadTimeout),
		WriteTimeout: seconds(cfg.HTTP.WriteTimeout),
		IdleTimeout:  seconds(cfg.HTTP.IdleTimeout),
	}

	go func() {
		logrus.Infof("Listening on %s", cfg.HTTP.Listen)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	logrus.Info("Shutting down")

	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), seconds(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Could not shut down cleanly")
	}
}
