package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/service"
)

const metricsSubject = "monitor.metrics"

// Metrics is one published sample: scheduling health plus host load
type Metrics struct {
	ScheduledTasks  int           `json:"scheduled_tasks"`
	CriticalTasks   int           `json:"critical_tasks"`
	RecomputeTime   time.Duration `json:"recompute_time"`
	LastComputedAt  time.Time     `json:"last_computed_at"`
	CPUPercent      float64       `json:"cpu_percent"`
	MemoryUsedBytes uint64        `json:"memory_used_bytes"`
	CollectedAt     time.Time     `json:"collected_at"`
}

// MetricsCollector periodically samples the task service's recompute stats
// and host cpu/memory, and publishes them to NATS.
type MetricsCollector struct {
	logger   *zap.Logger
	js       nats.JetStreamContext
	service  *service.TaskService
	interval time.Duration
	stop     chan struct{}
}

// NewMetricsCollector creates a metrics collector
func NewMetricsCollector(js nats.JetStreamContext, svc *service.TaskService, interval time.Duration, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		logger:   logger.Named("metrics-collector"),
		js:       js,
		service:  svc,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start provisions the metrics stream and starts the collection loop
func (c *MetricsCollector) Start(ctx context.Context) error {
	_, err := c.js.AddStream(&nats.StreamConfig{
		Name:     "MONITOR",
		Subjects: []string{"monitor.*"},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	}, nats.Context(ctx))
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create monitor stream: %w", err)
	}

	c.logger.Info("Starting metrics collector", zap.Duration("interval", c.interval))
	go c.collectLoop(ctx)
	return nil
}

// Stop stops the collection loop
func (c *MetricsCollector) Stop() {
	c.logger.Info("Stopping metrics collector")
	close(c.stop)
}

func (c *MetricsCollector) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.collect(); err != nil {
				c.logger.Error("Failed to collect metrics", zap.Error(err))
			}
		}
	}
}

func (c *MetricsCollector) collect() error {
	stats := c.service.LastRecomputeStats()
	sample := Metrics{
		ScheduledTasks: stats.TaskCount,
		CriticalTasks:  stats.CriticalCount,
		RecomputeTime:  stats.Duration,
		LastComputedAt: stats.ComputedAt,
		CollectedAt:    time.Now().UTC(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		sample.MemoryUsedBytes = vm.Used
	}

	data, err := json.Marshal(&sample)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if _, err := c.js.Publish(metricsSubject, data); err != nil {
		return fmt.Errorf("failed to publish metrics: %w", err)
	}
	return nil
}
