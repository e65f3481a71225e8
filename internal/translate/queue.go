package translate

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of work run by a Queue.
type Task func(ctx context.Context) (string, error)

type queued struct {
	ctx  context.Context
	task Task
	done chan result
}

type result struct {
	text string
	err  error
}

// Queue runs submitted tasks at most maxConcurrent at a time, pausing between
// groups. One drain goroutine exists at a time; a Submit while it is running
// only enqueues.
type Queue struct {
	maxConcurrent int
	delay         time.Duration

	mu       sync.Mutex
	pending  []queued
	draining bool
}

// NewQueue creates a queue. maxConcurrent below 1 is treated as 1.
func NewQueue(maxConcurrent int, delay time.Duration) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Queue{maxConcurrent: maxConcurrent, delay: delay}
}

// Submit enqueues task and waits for its result. If ctx ends first Submit
// returns ctx.Err(); the task still runs with the cancelled ctx.
func (q *Queue) Submit(ctx context.Context, task Task) (string, error) {
	item := queued{ctx: ctx, task: task, done: make(chan result, 1)}

	q.mu.Lock()
	q.pending = append(q.pending, item)
	start := !q.draining
	q.draining = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}

	select {
	case r := <-item.done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending returns the number of tasks not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		n := min(q.maxConcurrent, len(q.pending))
		group := q.pending[:n:n]
		q.pending = q.pending[n:]
		q.mu.Unlock()

		var wg sync.WaitGroup
		for _, item := range group {
			wg.Add(1)
			go func(item queued) {
				defer wg.Done()
				text, err := item.task(item.ctx)
				item.done <- result{text: text, err: err}
			}(item)
		}
		wg.Wait()

		if q.Pending() > 0 && q.delay > 0 {
			time.Sleep(q.delay)
		}
	}
}
