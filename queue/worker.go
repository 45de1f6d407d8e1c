package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// Handler processes one task and returns its result payload.
type Handler func(ctx context.Context, task *Task) (interface{}, error)

// Worker polls the store and dispatches tasks to handlers registered by
// task type. Failed tasks are marked failed with the error text and are
// not retried.
type Worker struct {
	store    Store
	handlers map[string]Handler
	logger   zerolog.Logger
}

// NewWorker creates a worker over the given store.
func NewWorker(store Store, logger zerolog.Logger) *Worker {
	return &Worker{
		store:    store,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register installs a handler for a task type, replacing any previous one.
func (w *Worker) Register(taskType string, handler Handler) {
	w.handlers[taskType] = handler
}

// Run polls for tasks until the context is canceled. Poll errors are logged
// and retried; task failures are recorded on the task itself.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped")
			return ctx.Err()
		default:
		}

		task, err := w.store.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("worker stopped")
				return ctx.Err()
			}
			w.logger.Error().Err(err).Msg("queue poll failed")
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	log := w.logger.With().Str("task_id", task.ID).Str("task_type", task.Type).Logger()
	log.Info().Msg("task received")

	task.Status = StatusProcessing
	task.StartedAt = time.Now().Unix()
	if err := w.store.SetTask(ctx, task); err != nil {
		log.Error().Err(err).Msg("failed to mark task processing")
	}

	result, err := w.dispatch(ctx, task)
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
		task.CompletedAt = time.Now().Unix()
		if serr := w.store.SetTask(ctx, task); serr != nil {
			log.Error().Err(serr).Msg("failed to mark task failed")
		}
		log.Error().Err(err).Msg("task failed")
		return
	}

	if err := w.store.SetResult(ctx, task.ID, result); err != nil {
		log.Error().Err(err).Msg("failed to store result")
	}

	task.Status = StatusCompleted
	task.CompletedAt = time.Now().Unix()
	if err := w.store.SetTask(ctx, task); err != nil {
		log.Error().Err(err).Msg("failed to mark task completed")
	}
	log.Info().Msg("task completed")
}

// dispatch runs the registered handler under panic recovery so one bad
// task cannot take the worker down.
func (w *Worker) dispatch(ctx context.Context, task *Task) (result interface{}, err error) {
	handler, ok := w.handlers[task.Type]
	if !ok {
		return nil, errors.NewValueError("Worker.dispatch", "unknown task type: "+task.Type)
	}

	defer errors.Recover(&err, "task "+task.Type)
	return handler(ctx, task)
}
