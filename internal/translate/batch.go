package translate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/locgrid/internal/lang"
)

const (
	DefaultBatchSize = 10
	DefaultDelay     = time.Second
)

// Job is one text to translate into Target.
type Job struct {
	Text   string
	Target string
}

// Result is the outcome of jobs[Index].
type Result struct {
	Index int
	Text  string
	Err   error
}

// ApplyFunc receives each finished batch with the running progress.
// It is called from the Run goroutine.
type ApplyFunc func(batch []Result, done, total int)

// Batcher translates jobs in fixed-size groups with a pause between groups.
type Batcher struct {
	Translator Translator
	Queue      *Queue
	Aliases    *lang.Aliases
	Source     string
	BatchSize  int
	Delay      time.Duration
}

// Run translates jobs in order. Jobs within a batch run concurrently and a
// failing job does not stop its siblings; every batch result, failed or not,
// is passed to apply. After a batch with a failure no further batch starts and
// the first error is returned.
func (b *Batcher) Run(ctx context.Context, jobs []Job, apply ApplyFunc) error {
	size := b.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}

	done := 0
	for start := 0; start < len(jobs); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+size, len(jobs))
		results := b.runBatch(ctx, jobs, start, end)
		done += end - start
		if apply != nil {
			apply(results, done, len(jobs))
		}

		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("translate %q: %w", jobs[r.Index].Text, r.Err)
			}
		}

		if end < len(jobs) && b.Delay > 0 {
			select {
			case <-time.After(b.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (b *Batcher) runBatch(ctx context.Context, jobs []Job, start, end int) []Result {
	results := make([]Result, end-start)
	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := b.translate(ctx, jobs[i])
			results[i-start] = Result{Index: i, Text: text, Err: err}
		}(i)
	}
	wg.Wait()
	return results
}

func (b *Batcher) translate(ctx context.Context, job Job) (string, error) {
	task := func(ctx context.Context) (string, error) {
		return Text(ctx, b.Translator, b.Aliases, job.Text, b.Source, job.Target)
	}
	if b.Queue == nil {
		return task(ctx)
	}
	return b.Queue.Submit(ctx, task)
}
