package pipeline

import (
	"context"
	"sync"
)

// runParallel runs fn for every task with at most maxConcurrent tasks in
// flight. Tasks not yet started when ctx is cancelled are skipped.
func runParallel[T any](ctx context.Context, tasks []T, maxConcurrent int, fn func(context.Context, T)) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

loop:
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		if ctx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)

		go func(t T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, t)
		}(task)
	}

	wg.Wait()
}
