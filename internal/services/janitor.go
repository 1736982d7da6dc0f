package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Janitor interface {
	Start(ctx context.Context)
	Stop()
	SweepOnce(ctx context.Context) int
}

type janitor struct {
	sweepers map[string]Sweeper
	interval time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewJanitor sweeps every named store each interval.
func NewJanitor(sweepers map[string]Sweeper, interval time.Duration, log *zap.Logger) Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &janitor{
		sweepers: sweepers,
		interval: interval,
		logger:   logger.OrNop(log),
		stopChan: make(chan struct{}),
	}
}

// Start implements Janitor.
func (j *janitor) Start(ctx context.Context) {
	j.logger.Info("🧹 Starting store janitor", zap.Duration("interval", j.interval))

	j.wg.Add(1)
	go j.run(ctx)
}

// Stop implements Janitor.
func (j *janitor) Stop() {
	j.stopOnce.Do(func() {
		j.logger.Info("🛑 Stopping store janitor...")
		close(j.stopChan)
	})
	j.wg.Wait()
	j.logger.Info("✅ Store janitor stopped")
}

// SweepOnce implements Janitor.
func (j *janitor) SweepOnce(ctx context.Context) int {
	total := 0
	for name, s := range j.sweepers {
		removed, err := s.Sweep(ctx)
		if err != nil {
			j.logger.Warn("⚠️  Sweep failed", zap.String("store", name), zap.Error(err))
			continue
		}
		if removed > 0 {
			j.logger.Info("🗑️  Expired entries removed", zap.String("store", name), zap.Int("removed", removed))
		}
		total += removed
	}
	return total
}

func (j *janitor) run(ctx context.Context) {
	defer j.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}
