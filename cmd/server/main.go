package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/monitor"
	"github.com/synapticflow/synaptic-flow/internal/schedule"
	"github.com/synapticflow/synaptic-flow/internal/service"
	"github.com/synapticflow/synaptic-flow/internal/storage"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatal("Failed to read config file", zap.Error(err))
	}

	// Connect to NATS
	opts := []nats.Option{
		nats.Name(viper.GetString("app.name")),
		nats.MaxReconnects(viper.GetInt("nats.max_reconnects")),
		nats.ReconnectWait(viper.GetDuration("nats.reconnect_wait")),
		nats.Timeout(viper.GetDuration("nats.connect_timeout")),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	var nc *nats.Conn
	maxRetries := viper.GetInt("nats.connect_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(viper.GetString("nats.urls.0"), opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		logger.Fatal("Failed to connect to NATS after retries", zap.Error(err))
	}
	defer nc.Close()

	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))

	js, err := nc.JetStream()
	if err != nil {
		logger.Fatal("Failed to create JetStream context", zap.Error(err))
	}

	// Open the task store
	store, err := storage.NewSQLiteTaskStore(logger, viper.GetString("storage.db_path"))
	if err != nil {
		logger.Fatal("Failed to open task store", zap.Error(err))
	}
	defer store.Close()

	// Wire the scheduling engine and task service
	engine := schedule.NewEngine(logger)
	taskService, err := service.NewTaskService(js, store, engine, logger)
	if err != nil {
		logger.Fatal("Failed to create task service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics collection
	metricsInterval := viper.GetDuration("monitor.interval")
	if metricsInterval == 0 {
		metricsInterval = 30 * time.Second
	}
	collector := monitor.NewMetricsCollector(js, taskService, metricsInterval, logger)
	if err := collector.Start(ctx); err != nil {
		logger.Fatal("Failed to start metrics collector", zap.Error(err))
	}
	defer collector.Stop()

	// Maintenance jobs
	purgeAge := viper.GetDuration("storage.purge_age")
	if purgeAge == 0 {
		purgeAge = 30 * 24 * time.Hour
	}
	maintenance := service.NewMaintenance(taskService, store, purgeAge, logger)
	if err := maintenance.Start(); err != nil {
		logger.Fatal("Failed to start maintenance jobs", zap.Error(err))
	}
	defer maintenance.Stop()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	logger.Info("Server shutting down gracefully")
}
