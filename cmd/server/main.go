package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mona-backend/internal/aggregator"
	"mona-backend/internal/api"
	"mona-backend/internal/database"
	"mona-backend/internal/log"
	"mona-backend/internal/ml"
	"mona-backend/internal/models"
	"mona-backend/internal/mqtt"
	"mona-backend/internal/services"
	"mona-backend/pkg/config"
)

func main() {
	writeSamples := flag.Bool("write-sample-models", false, "write sample model artifacts to MODEL_DIR and exit")
	flag.Parse()

	// Production logger first so config parse warnings are not lost
	if err := log.Init(false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load()
	if cfg.Debug {
		if err := log.Init(true); err != nil {
			log.Fatalf("Failed to initialize debug logger: %v", err)
		}
	}

	if *writeSamples {
		if err := ml.WriteSampleArtifacts(cfg.ModelDir); err != nil {
			log.Fatalf("Failed to write sample models: %v", err)
		}
		return
	}

	log.Info("Starting slope stability FOS service...")

	// The predictor is always usable; without artifacts it answers in fallback mode
	predictor := ml.NewPredictor(cfg.ModelDir, ml.WithSeed(cfg.RandomSeed))
	log.Infow("Prediction engine ready",
		"fallback_mode", predictor.FallbackMode(),
		"trained_models", predictor.LoadedArtifacts(),
		"model_version", predictor.ModelVersion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Storage ===
	var (
		telemetryStore  services.TelemetryStore
		predictionStore services.PredictionStore
		history         api.PredictionHistory
	)
	if cfg.ClickHouseEnabled {
		connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
		db, err := database.NewClickHouseDB(connectCtx, cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
		connectCancel()
		if err != nil {
			log.Errorw("ClickHouse unavailable, continuing without persistence", "error", err)
		} else {
			defer db.Close()
			telemetryStore, predictionStore, history = db, db, db
		}
	}

	// === Pipeline ===
	buffer := aggregator.NewStationBuffer(aggregator.ChangeThresholds{
		Deltas: map[string]float64{
			models.ChannelDisplacement: cfg.DisplacementDelta,
			models.ChannelRainfall:     cfg.RainfallDelta,
			models.ChannelPorePressure: cfg.PorePressureDelta,
			models.ChannelTilt:         cfg.TiltDelta,
		},
		MinInterval: cfg.PredictionMinInterval,
	})
	telemetryService := services.NewTelemetryService(telemetryStore, buffer, services.DefaultTelemetryServiceConfig())

	var (
		publishChan chan *models.FOSPrediction
		broker      api.BrokerStatus
		wg          sync.WaitGroup
	)

	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Errorw("MQTT unavailable, continuing with the HTTP API only", "error", err)
		} else {
			defer mqttClient.Close()

			subscriber := mqtt.NewSubscriber(mqttClient.GetNativeClient(),
				mqtt.SubscriberConfig{TelemetryTopic: cfg.MQTTTopicTelemetry},
				telemetryService.SampleChan)
			if err := subscriber.SubscribeAll(); err != nil {
				log.Errorw("Failed to subscribe to telemetry", "error", err)
			}
			mqttClient.OnReconnect(func() {
				if err := subscriber.SubscribeAll(); err != nil {
					log.Errorw("Failed to resubscribe to telemetry", "error", err)
				}
			})
			broker = mqttClient

			publishChan = make(chan *models.FOSPrediction, 50)
			publisher := mqtt.NewPublisher(mqttClient.GetNativeClient(),
				mqtt.PublisherConfig{PredictionTopic: cfg.MQTTTopicPrediction},
				publishChan)

			wg.Add(1)
			go func() {
				defer wg.Done()
				publisher.Start(ctx)
			}()
		}
	}

	predictionService := services.NewPredictionService(predictor, predictionStore, publishChan)

	wg.Add(2)
	go func() {
		defer wg.Done()
		telemetryService.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		predictionService.Start(ctx, telemetryService.RequestChan)
	}()

	// === HTTP API ===
	handlers := api.NewHandlers(predictor, telemetryService, predictionService, history)
	if broker != nil {
		handlers.SetBrokerStatus(broker)
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(log.GetZapLogger()),
	}

	go func() {
		log.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("HTTP server failed", "error", err)
			cancel()
		}
	}()

	log.Infow("Service is running",
		"telemetry_topic", cfg.MQTTTopicTelemetry,
		"prediction_topic", cfg.MQTTTopicPrediction,
		"mqtt", publishChan != nil,
		"persistence", predictionStore != nil)

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Infof("Shutdown signal received (%s), stopping services...", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP server shutdown", "error", err)
	}

	cancel()
	wg.Wait()

	log.Info("Shutdown complete")
}
