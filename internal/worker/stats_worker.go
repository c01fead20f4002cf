package worker

import (
	"context"
	"sync"
	"time"

	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
	"go.uber.org/zap"
)

const statsWorkerPageSize = 100

// StatsWorkerConfig holds configuration for the periodic queue-depth
// gauge refresh. Projects is the explicit allow-list of projects to
// scrape; an empty list is a safe no-op rather than a full scan, since
// the storage contracts have no "list every project" capability by
// design (multi-tenant isolation, invariant 1).
type StatsWorkerConfig struct {
	Interval time.Duration
	Projects []string
}

func DefaultStatsWorkerConfig() StatsWorkerConfig {
	return StatsWorkerConfig{Interval: time.Minute}
}

// StatsWorker refreshes the queuebroker_queues_depth gauge for every
// queue under every configured project, by calling the same
// QueueService.Stats the HTTP stats endpoint uses.
type StatsWorker struct {
	queues *service.QueueService
	config StatsWorkerConfig
	logger *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewStatsWorker(queues *service.QueueService, config StatsWorkerConfig, log *logger.Logger) *StatsWorker {
	return &StatsWorker{queues: queues, config: config, logger: log, stopCh: make(chan struct{})}
}

func (w *StatsWorker) Name() string { return "StatsWorker" }

func (w *StatsWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	if len(w.config.Projects) == 0 {
		w.logger.Info("stats worker disabled: no projects configured")
		return
	}

	w.logger.Info("stats worker started", zap.Duration("interval", w.config.Interval), zap.Int("projects", len(w.config.Projects)))

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info("stats worker stopped")
}

func (w *StatsWorker) refresh(ctx context.Context) {
	for _, project := range w.config.Projects {
		marker := ""
		for {
			page, err := w.queues.List(ctx, project, storage.QueueListOptions{
				ListOptions: storage.ListOptions{Marker: marker, Limit: statsWorkerPageSize},
			})
			if err != nil {
				w.logger.Error("stats worker failed to list queues", zap.String("project", project), zap.Error(err))
				break
			}
			for _, q := range page.Items {
				if _, err := w.queues.Stats(ctx, project, q.Name); err != nil {
					w.logger.Error("stats worker failed to refresh queue stats",
						zap.String("project", project), zap.String("queue", q.Name), zap.Error(err))
				}
			}
			if page.NextMarker == "" {
				break
			}
			marker = page.NextMarker
		}
	}
}
