package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raymondelooff/amqp-location-tracker/feed"
	"github.com/raymondelooff/amqp-location-tracker/store"
	"github.com/raymondelooff/amqp-location-tracker/tracker"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("error: config file location not specified")
	}

	c, err := loadConfig(os.Args[1])
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	// Set up logger
	var logger *zap.Logger
	if c.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Set up storage
	db, err := store.NewDbConnection(c.MySQL)
	if err != nil {
		sugar.Fatalf("tracker: %s", err)
	}
	defer db.Close()

	if err := store.CreateTables(db); err != nil {
		sugar.Fatalf("tracker: %s", err)
	}

	writer := store.NewWriter(c.MySQL, db, sugar)
	defer writer.Close()

	// Set up feeds
	subscriber := feed.NewSubscriber(c.AMQP, c.Descriptors(), store.NewSampleStore(c.MySQL, db), sugar)
	if err := subscriber.Connect(); err != nil {
		sugar.Fatalf("tracker: %s", err)
	}
	defer subscriber.Shutdown()

	publisher := feed.NewPublisher(c.AMQP, sugar)
	if err := publisher.Open(subscriber.Connection()); err != nil {
		sugar.Fatalf("tracker: %s", err)
	}
	defer publisher.Close()

	// Set up metrics
	registry := prometheus.NewRegistry()
	metrics := tracker.NewMetrics(registry)

	if c.Metrics.Listen != "" {
		server := serveMetrics(c.Metrics.Listen, registry, sugar)
		defer server.Close()
	}

	capability, err := c.Capability.Provider()
	if err != nil {
		sugar.Fatalf("tracker: %s", err)
	}

	sink := tracker.MultiSink{tracker.NewLogSink(sugar), writer, publisher}
	session := tracker.NewSession(capability, subscriber, c.SourceIDs(), sink, metrics, sugar)

	if err := session.Start(); err != nil {
		sugar.Fatalf("tracker: %s", err)
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	<-exit

	sugar.Info("tracker: shutting down")
	if err := session.Stop(); err != nil {
		sugar.Warnf("tracker: %s", err)
	}
	sugar.Info("tracker: shutdown OK")
}

func serveMetrics(addr string, registry *prometheus.Registry, sugar *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorf("tracker: metrics server: %s", err)
		}
	}()

	sugar.Infof("tracker: serving metrics on %s/metrics", addr)

	return server
}
