// Package worker runs a bounded number of goroutines over queued work items.
//
// A failing item is logged and counted; it never stops the pool or affects
// other items. Handlers return their results through closures owned by the
// caller, so the pool itself holds no shared state beyond counters.
package worker

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rollcall/internal/adapters/mq/queue"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultConcurrency = 5
)

// Handler processes one work item.
type Handler[T any] func(ctx context.Context, item T) error

// Source defines how workers receive items.
type Source[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Report summarizes a finished run.
type Report struct {
	Processed int
	Failed    int
}

// Pool runs a Handler over items from a Source with bounded concurrency.
type Pool[T any] struct {
	handler     Handler[T]
	name        string
	concurrency int
	describe    func(T) string
	logger      logger.Logger
}

// NewPool creates a new worker pool around handler.
func NewPool[T any](handler Handler[T], opts ...Option) *Pool[T] {
	cfg := settings{name: "worker-pool", concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get()
	}

	return &Pool[T]{
		handler:     handler,
		name:        cfg.name,
		concurrency: cfg.concurrency,
		logger:      cfg.logger.Named(cfg.name),
	}
}

// Describe sets how items are identified in failure logs.
func (p *Pool[T]) Describe(fn func(T) string) *Pool[T] {
	p.describe = fn
	return p
}

// Concurrency returns the number of workers the pool starts.
func (p *Pool[T]) Concurrency() int {
	return p.concurrency
}

// Run starts the workers and blocks until src is drained or ctx is canceled.
func (p *Pool[T]) Run(ctx context.Context, src Source[T]) Report {
	items := src.Dequeue(ctx)

	var processed, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := p.logger.With(logger.String("worker", strconv.Itoa(id)))
			for item := range items {
				if ctx.Err() != nil {
					return
				}
				if err := p.process(ctx, item); err != nil {
					failed.Add(1)
					metrics.RecordWorkItem(p.name, "failed")
					metrics.RecordErrorByComponent(p.name, "item_failed")
					log.Warn(ctx, "work item failed",
						logger.String("item", p.label(item)),
						logger.Error(err),
					)
					continue
				}
				processed.Add(1)
				metrics.RecordWorkItem(p.name, "ok")
			}
		}(i)
	}
	wg.Wait()

	return Report{Processed: int(processed.Load()), Failed: int(failed.Load())}
}

// RunAll queues items and runs the pool over them.
func (p *Pool[T]) RunAll(ctx context.Context, items []T) Report {
	q := queue.NewInMemoryQueue[T](queue.WithCapacity(len(items)))
	for _, item := range items {
		q.Enqueue(ctx, item)
	}
	_ = q.Close()
	p.logger.Debug(ctx, "work queued",
		logger.Int("items", q.Len(ctx)),
		logger.Int("capacity", q.Capacity()),
		logger.Int("workers", p.concurrency),
	)
	return p.Run(ctx, q)
}

func (p *Pool[T]) process(ctx context.Context, item T) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()
	return p.handler(ctx, item)
}

func (p *Pool[T]) label(item T) string {
	if p.describe == nil {
		return ""
	}
	return p.describe(item)
}
