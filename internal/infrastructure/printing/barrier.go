package printing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ImageWaiter blocks until one image has finished loading. It reports
// true for a loaded image and false for an image that failed to load.
type ImageWaiter func(ctx context.Context) (bool, error)

// BarrierResult counts how the waited images ended
type BarrierResult struct {
	Loaded   int `json:"loaded"`
	Failed   int `json:"failed"`
	TimedOut int `json:"timed_out"`
}

// Total returns the number of waited images
func (r BarrierResult) Total() int {
	return r.Loaded + r.Failed + r.TimedOut
}

// AwaitImages runs every waiter concurrently and returns only after all of
// them have reported, or timeout has elapsed. A failed image never releases
// the barrier early. After the barrier the settle delay is observed so the
// page can paint.
func AwaitImages(ctx context.Context, waiters []ImageWaiter, timeout, settle time.Duration) (BarrierResult, error) {
	var result BarrierResult

	if len(waiters) > 0 {
		waitCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, wait := range waiters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				loaded, err := wait(waitCtx)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil && (errors.Is(err, context.DeadlineExceeded) || waitCtx.Err() != nil):
					result.TimedOut++
				case err == nil && loaded:
					result.Loaded++
				default:
					result.Failed++
				}
			}()
		}
		wg.Wait()
	}

	// a cancelled caller wins over the image timeout
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if settle > 0 {
		t := time.NewTimer(settle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-t.C:
		}
	}
	return result, nil
}
