package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task фоновая задача; ошибка задачи только логируется
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool выполняет побочные эффекты после коммита на отдельных горутинах.
// Задачи не повторяются: одна попытка на задачу.
type Pool struct {
	concurrency int
	queue       chan job
	logger      *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool создаёт пул с заданным числом воркеров и размером очереди
func NewPool(concurrency, queueSize int, logger *zap.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		concurrency: concurrency,
		queue:       make(chan job, queueSize),
		logger:      logger,
	}
}

// Start запускает воркеры. Отмена ctx прерывает выполняемые задачи,
// но не очередь: для остановки используйте Stop.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("concurrency", p.concurrency))

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Submit ставит задачу в очередь без блокировки.
// Возвращает false, если пул остановлен или очередь переполнена.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn("Task rejected: worker pool is stopped", zap.String("task", name))
		return false
	}

	select {
	case p.queue <- job{name: name, run: task}:
		return true
	default:
		p.logger.Warn("Task dropped: worker queue is full", zap.String("task", name))
		return false
	}
}

// Stop прекращает приём задач и ждёт завершения очереди или отмены ctx
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop worker pool: %w", ctx.Err())
	}
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for j := range p.queue {
		p.execute(ctx, j)
	}
}

func (p *Pool) execute(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked", zap.String("task", j.name), zap.Any("panic", r))
		}
	}()

	if err := j.run(ctx); err != nil {
		p.logger.Error("Task failed", zap.String("task", j.name), zap.Error(err))
		return
	}

	p.logger.Debug("Task completed", zap.String("task", j.name))
}
