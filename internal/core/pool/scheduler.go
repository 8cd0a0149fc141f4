// Package pool provides the bounded scheduler used to run independent
// synthesis jobs under a concurrency ceiling.
package pool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Result carries the terminal outcome of one job, aligned to its submission
// index. Exactly one of Value/Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// Progress is invoked after each job reaches a terminal state. done is
// monotonically non-decreasing and reaches total only when every job finished.
type Progress func(done, total int)

// Run executes jobs with at most limit running concurrently. Admission follows
// submission order: as a slot frees, the next not-yet-started job is admitted.
// A job failure never cancels its siblings; it is recorded at the job's
// position. The returned slice is aligned to the input order. cancelled is
// true when ctx ended before every job could be admitted; jobs that were never
// started carry ctx's error as their outcome.
func Run[T any](ctx context.Context, limit int, jobs []func(context.Context) (T, error), onProgress Progress) (results []Result[T], cancelled bool) {
	results = make([]Result[T], len(jobs))
	if len(jobs) == 0 {
		return results, false
	}
	if limit <= 0 {
		limit = 1
	}

	sem := semaphore.NewWeighted(int64(limit))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	// Delivery stays under mu so two completing jobs cannot hand their
	// snapshots to the sink out of order.
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if onProgress != nil {
			onProgress(done, len(jobs))
		}
	}

	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Admission aborted; everything not yet started fails with the
			// context error, already-running jobs finish on their own.
			for j := i; j < len(jobs); j++ {
				results[j].Err = err
				report()
			}
			cancelled = true
			break
		}

		wg.Add(1)
		go func(idx int, run func(context.Context) (T, error)) {
			defer wg.Done()
			defer sem.Release(1)
			defer report()

			defer func() {
				if r := recover(); r != nil {
					results[idx].Err = fmt.Errorf("job %d panicked: %v", idx, r)
				}
			}()

			value, err := run(ctx)
			if err != nil {
				results[idx].Err = err
				return
			}
			results[idx].Value = value
		}(i, job)
	}

	wg.Wait()
	return results, cancelled
}
