package refill

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refiller performs the refill for one deck session.
type Refiller interface {
	Refill(ctx context.Context, sessionID string) error
}

// Queue is a bounded refill queue. Enqueue never blocks.
type Queue struct {
	ch chan string
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan string, size)}
}

func (q *Queue) Enqueue(sessionID string) bool {
	select {
	case q.ch <- sessionID:
		return true
	default:
		return false
	}
}

func (q *Queue) Len() int { return len(q.ch) }

// Run drains the queue with concurrency workers until ctx is done. Each
// refill gets its own timeout when timeout > 0. Run blocks until every
// worker has returned.
func Run(ctx context.Context, q *Queue, r Refiller, concurrency int, timeout time.Duration, log *slog.Logger) {
	if concurrency < 1 {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-q.ch:
					process(ctx, r, id, q.Len(), timeout, log.With("worker", idx))
				}
			}
		}(i)
	}
	wg.Wait()
}

func process(ctx context.Context, r Refiller, id string, pending int, timeout time.Duration, log *slog.Logger) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	if err := r.Refill(ctx, id); err != nil {
		log.Warn("refill failed", "session", id, "error", err)
		return
	}
	log.Debug("refill done", "session", id, "took", time.Since(start), "pending", pending)
}
