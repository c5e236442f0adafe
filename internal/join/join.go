// Package join runs independent operations concurrently and collects every
// outcome. Unlike errgroup-style joins, one operation's failure never cancels
// its siblings: the suggestion pipelines want partial results, not first-error
// semantics.
package join

import (
	"context"
	"fmt"
	"sync"
)

// Result holds one operation's outcome.
type Result[T any] struct {
	Value T
	Err   error
}

// Settle runs every function concurrently and returns their results in input
// order once all have finished. Panics are recovered into errors so a single
// bad operation cannot take down the batch.
func Settle[T any](ctx context.Context, fns []func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))

	var wg sync.WaitGroup
	for i, fn := range fns {
		i, fn := i, fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("panic: %v", r)
				}
			}()
			results[i].Value, results[i].Err = fn(ctx)
		}()
	}
	wg.Wait()

	return results
}

// Map applies fn to every item concurrently, at most limit at a time
// (limit <= 0 means unbounded), and returns results in input order.
func Map[In, Out any](ctx context.Context, limit int, items []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(items))

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("panic: %v", r)
				}
			}()
			results[i].Value, results[i].Err = fn(ctx, item)
		}()
	}
	wg.Wait()

	return results
}
