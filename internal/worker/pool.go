// Package worker provides a generic concurrent worker pool for fan-out/fan-in
// processing keyed by entity id. Used to parallelize health evaluation over
// large registries.
package worker

import (
	"runtime"
	"sync"
)

// Result pairs a processed value with its original index to preserve ordering.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool fans out work items to a fixed number of goroutine workers
// and collects results preserving the original input order.
type Pool[T any] struct {
	concurrency int
}

// NewPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to runtime.NumCPU().
func NewPool[T any](concurrency int) *Pool[T] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool[T]{concurrency: concurrency}
}

// Process distributes ids across workers, applies fn to each, and returns
// results in the same order as the input slice. Errors from individual items
// are captured per-result rather than aborting the whole batch. fn must be
// safe for concurrent use.
func (p *Pool[T]) Process(ids []string, fn func(string) (T, error)) []Result[T] {
	if len(ids) == 0 {
		return nil
	}

	workers := p.concurrency
	if workers > len(ids) {
		workers = len(ids)
	}

	type job struct {
		index int
		id    string
	}

	jobs := make(chan job, len(ids))
	results := make([]Result[T], len(ids))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				val, err := fn(j.id)
				results[j.index] = Result[T]{
					Index: j.index,
					Value: val,
					Err:   err,
				}
			}
		}()
	}

	for i, id := range ids {
		jobs <- job{index: i, id: id}
	}
	close(jobs)

	wg.Wait()

	return results
}
