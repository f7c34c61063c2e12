package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

type Task = func()

var ErrShuttingDown = errors.New("background tasks are shutting down")

// BackgroundTasks runs queued tasks on a fixed number of workers.
type BackgroundTasks struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New(log *slog.Logger, maxWorkers int, maxTasksQueueSize int) *BackgroundTasks {
	return &BackgroundTasks{
		log:        log,
		maxWorkers: max(maxWorkers, 1),
		tasks:      make(chan Task, max(maxTasksQueueSize, 0)),
	}
}

func (t *BackgroundTasks) Run() {
	t.wg.Add(t.maxWorkers)
	for i := 0; i < t.maxWorkers; i++ {
		go func() {
			defer t.wg.Done()
			log := t.log.With("worker", i)
			for task := range t.tasks {
				t.runTask(log, task)
			}
		}()
	}
}

func (t *BackgroundTasks) runTask(log *slog.Logger, task Task) {
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic in background task", "err", err)
		}
	}()
	task()
}

// Add queues a task, blocking while the queue is full.
func (t *BackgroundTasks) Add(task Task) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrShuttingDown
	}
	t.tasks <- task
	return nil
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (t *BackgroundTasks) Shutdown(ctx context.Context) error {
	const op = "tasks.BackgroundTasks.Shutdown"
	log := t.log.With("op", op)
	log.Info("shutting down background tasks")
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.tasks)
	}
	t.mu.Unlock()
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("Background tasks succesfully stopped")
		return nil
	}
}

func (t *BackgroundTasks) IsEmpty() bool {
	return len(t.tasks) == 0
}
