package scheduler

import (
	"context"
	"fmt"

	allocsvc "clinic_crm_backend/internal/allocation/service"
	rfvsvc "clinic_crm_backend/internal/rfv/service"
	"clinic_crm_backend/platform/config"
	"clinic_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	rfv    *rfvsvc.Service
	alloc  *allocsvc.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, rfv *rfvsvc.Service, alloc *allocsvc.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		rfv:    rfv,
		alloc:  alloc,
		log:    log,
	}

	mux.HandleFunc(TaskRFVRecalculate, w.handleRFVRecalculate)
	mux.HandleFunc(TaskLeadsRedistribute, w.handleLeadsRedistribute)

	return w, nil
}

func (w *Worker) handleRFVRecalculate(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseRFVRecalculatePayload(task); err != nil {
		return err
	}

	stats, err := w.rfv.Recalculate(ctx)
	if err != nil {
		return err
	}

	w.log.Info("scheduled recalculation finished",
		"uniqueCustomers", stats.UniqueCustomers,
		"updated", stats.Updated,
		"errors", stats.Errors,
	)
	return nil
}

func (w *Worker) handleLeadsRedistribute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadsRedistributePayload(task)
	if err != nil {
		return err
	}

	summary, err := w.alloc.Run(ctx, payload.Action)
	if err != nil {
		return err
	}

	w.log.Info("scheduled redistribution finished",
		"totalLeads", summary.TotalLeads,
		"imported", summary.Imported,
		"linked", summary.Linked,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
