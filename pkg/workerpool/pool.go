package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Task is a unit of detached work. The context is owned by the pool and is
// cancelled when the pool is stopped, never by the code that submitted it.
type Task func(ctx context.Context)

type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

type Config struct {
	Workers   int
	QueueSize int
	Logger    Logger
}

func DefaultConfig() *Config {
	return &Config{
		Workers:   4,
		QueueSize: 256,
	}
}

var ErrPoolStopped = errors.New("worker pool is stopped")

// Pool runs submitted tasks on a fixed number of goroutines fed by a bounded
// queue. Submit never blocks.
type Pool struct {
	config *Config
	tasks  chan Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool

	inFlight atomic.Int64
}

func New(config *Config) *Pool {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		config: config,
		tasks:  make(chan Task, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	if p.config.Logger != nil {
		p.config.Logger.Info("Worker pool started", "workers", p.config.Workers, "queue_size", p.config.QueueSize)
	}
}

// Submit enqueues t and reports whether it was accepted. A full queue or a
// stopped pool rejects the task.
func (p *Pool) Submit(t Task) bool {
	if t == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// Running reports whether workers are accepting tasks.
func (p *Pool) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started && !p.stopped
}

// QueueDepth is the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// InFlight is the number of tasks a worker is currently running.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Shutdown stops accepting tasks and waits for queued ones to finish until ctx
// expires. Tasks still pending at that point are abandoned and their context
// is cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		abandoned := len(p.tasks)
		if p.config.Logger != nil {
			p.config.Logger.Warn("Worker pool shutdown timed out", "abandoned_tasks", abandoned, "in_flight", p.inFlight.Load())
		}
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if p.ctx.Err() != nil {
			// Drain without running once the pool context is gone.
			continue
		}
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	defer func() {
		if r := recover(); r != nil && p.config.Logger != nil {
			p.config.Logger.Error("Worker task panicked", "worker", id, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	task(p.ctx)
}
