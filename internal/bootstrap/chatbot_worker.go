package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatbot_server/adapter/in/worker"
	"chatbot_server/adapter/out/messaging"
	"chatbot_server/config"
	"chatbot_server/pkg/apperr"
	"chatbot_server/pkg/logger"

	"github.com/rs/zerolog"
)

// statsInterval is how often the worker logs its counters.
const statsInterval = time.Minute

// Worker drains the interaction stream into the interaction store.
type Worker struct {
	consumer  *messaging.Consumer
	processor *worker.InteractionProcessor
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	zlog      zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}
	if deps.Redis == nil || deps.InteractionRepo == nil {
		cleanup()
		return nil, nil, apperr.ConfigError("worker mode requires REDIS_URL and MONGODB_URL")
	}

	zlog := logger.Component("worker")
	processor := worker.NewInteractionProcessor(deps.InteractionRepo, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
		zlog:      zlog,
	}
	w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
		Group:                cfg.ConsumerGroup,
		Consumer:             cfg.WorkerID,
		Streams:              []string{messaging.StreamInteraction},
		Handler:              processor,
		Logger:               logger.Component("consumer"),
		BatchSize:            int64(cfg.ConsumerBatchSize),
		Block:                time.Duration(cfg.ConsumerBlockMS) * time.Millisecond,
		PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
		MaxRetries:           cfg.ConsumerMaxRetries,
	})

	return w, cleanup, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.zlog.Info().Msg("Starting Redis Stream Consumer...")
		if err := w.consumer.Run(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.zlog.Error().Err(err).Msg("Redis Stream Consumer error")
		}
	}()
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				processed, skipped := w.processor.Stats()
				w.zlog.Info().Int64("processed", processed).Int64("skipped", skipped).Msg("interaction worker stats")
			}
		}
	}()

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}
