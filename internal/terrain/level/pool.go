package level

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terragen/internal/terrain/tiles"
)

// runPool runs fn once per key on a bounded pool and logs progress in 10%
// steps. The first error cancels the remaining work and is returned.
func runPool(ctx context.Context, log *zap.Logger, stage string, keys []tiles.Key, workers int, fn func(tiles.Key) error) error {
	total := len(keys)
	if total == 0 {
		return nil
	}
	workers = workerCount(workers, total)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan tiles.Key, workers)
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range tasks {
				err := ctx.Err()
				if err == nil {
					err = fn(k)
				}
				select {
				case results <- err:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(tasks)
		for _, k := range keys {
			select {
			case <-ctx.Done():
				return
			case tasks <- k:
			}
		}
	}()

	done := 0
	nextLogPercent := 10
	for err := range results {
		if err != nil {
			cancel()
			return err
		}
		done++
		progress := done * 100 / total
		if progress >= nextLogPercent {
			log.Info("progress", zap.String("stage", stage), zap.Int("percent", progress),
				zap.Int("tiles", done), zap.Int("total", total))
			nextLogPercent = (progress/10 + 1) * 10
		}
	}
	if done < total {
		return ctx.Err()
	}
	return nil
}

func workerCount(configured, total int) int {
	workers := configured
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
