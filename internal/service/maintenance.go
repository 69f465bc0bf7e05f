package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/storage"
)

// Maintenance runs the scheduled housekeeping jobs: purging soft-deleted
// tasks past their retention window and a periodic full schedule recompute as
// a safety net against missed events.
type Maintenance struct {
	logger   *zap.Logger
	service  *TaskService
	store    storage.TaskStore
	cron     *cron.Cron
	purgeAge time.Duration
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// NewMaintenance creates the maintenance runner. purgeAge controls how long
// soft-deleted tasks are retained before hard removal.
func NewMaintenance(service *TaskService, store storage.TaskStore, purgeAge time.Duration, logger *zap.Logger) *Maintenance {
	named := logger.Named("maintenance")
	return &Maintenance{
		logger:   named,
		service:  service,
		store:    store,
		purgeAge: purgeAge,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(&cronLogger{logger: named.Named("cron")})),
		),
	}
}

// Start registers the jobs and starts the cron loop
func (m *Maintenance) Start() error {
	// Nightly purge at 03:00
	if _, err := m.cron.AddFunc("0 0 3 * * *", m.purge); err != nil {
		return err
	}
	// Hourly full recompute
	if _, err := m.cron.AddFunc("0 0 * * * *", m.recompute); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("Maintenance jobs scheduled")
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Maintenance) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-m.purgeAge)
	if err := m.store.PurgeDeletedBefore(ctx, cutoff); err != nil {
		m.logger.Error("Purge failed", zap.Error(err))
	}
}

func (m *Maintenance) recompute() {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	stats, err := m.service.Recompute(ctx)
	if err != nil {
		m.logger.Error("Scheduled recompute failed", zap.Error(err))
		return
	}
	m.logger.Info("Scheduled recompute complete",
		zap.Int("tasks", stats.TaskCount),
		zap.Int("critical", stats.CriticalCount),
		zap.Duration("duration", stats.Duration))
}
