package worker

import (
	"context"
	"sync"
	"time"

	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/telemetry"
	"go.uber.org/zap"
)

// ExpiryWorkerConfig holds configuration for the claim-expiry sweeper.
type ExpiryWorkerConfig struct {
	Interval time.Duration
}

func DefaultExpiryWorkerConfig() ExpiryWorkerConfig {
	return ExpiryWorkerConfig{Interval: 30 * time.Second}
}

// ExpiryWorker periodically reaps expired claims on drivers that
// support storage.ExpirySweeper, so claimed/free counts stay bounded
// instead of relying purely on lazy expiry checks at read time. Every
// read path already treats an expired claim as absent (domain.Claim.
// IsExpired), so this worker is a bookkeeping optimization, not a
// correctness requirement.
type ExpiryWorker struct {
	claims storage.ClaimStore
	clock  storage.Clock
	config ExpiryWorkerConfig
	logger *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewExpiryWorker(claims storage.ClaimStore, clock storage.Clock, config ExpiryWorkerConfig, log *logger.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		claims: claims,
		clock:  clock,
		config: config,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

func (w *ExpiryWorker) Name() string { return "ExpiryWorker" }

func (w *ExpiryWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	sweeper, ok := w.claims.(storage.ExpirySweeper)
	if !ok {
		w.logger.Info("expiry worker disabled: claim store does not implement ExpirySweeper")
		return
	}

	w.logger.Info("expiry worker started", zap.Duration("interval", w.config.Interval))

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.sweep(ctx, sweeper)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx, sweeper)
		}
	}
}

func (w *ExpiryWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info("expiry worker stopped")
}

func (w *ExpiryWorker) sweep(ctx context.Context, sweeper storage.ExpirySweeper) {
	start := time.Now()
	reaped, err := sweeper.SweepExpiredClaims(ctx, w.clock.Now())
	if err != nil {
		w.logger.Error("expiry sweep failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	if reaped > 0 {
		telemetry.ClaimsExpiredTotal.WithLabelValues("", "").Add(float64(reaped))
		w.logger.Debug("expiry sweep reaped claims",
			zap.Int("reaped", reaped), zap.Duration("duration", time.Since(start)))
	}
}
