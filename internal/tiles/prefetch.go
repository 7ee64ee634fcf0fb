package tiles

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Prefetch warms the cache for tiles using at most workers concurrent
// downloads. It reports how many tiles failed; the returned error is the
// first failure, or the context error if ctx was cancelled.
func (f *Fetcher) Prefetch(ctx context.Context, style Style, tiles []Tile, workers int, quiet bool) (failed int, err error) {
	if !style.Enabled() || len(tiles) == 0 {
		return 0, nil
	}
	if workers < 1 {
		workers = 1
	}

	var bar *progressbar.ProgressBar
	if quiet {
		bar = progressbar.DefaultSilent(int64(len(tiles)))
	} else {
		log.Printf("Prefetching %d %s tiles...", len(tiles), style.Name)
		bar = progressbar.NewOptions(len(tiles),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionSetDescription("Downloading Tiles"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	defer bar.Finish()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	limit := make(chan struct{}, workers)

loop:
	for _, tile := range tiles {
		select {
		case <-ctx.Done():
			break loop
		case limit <- struct{}{}:
		}
		wg.Add(1)
		go func(t Tile) {
			defer wg.Done()
			defer func() { <-limit }()
			if _, err := f.Get(ctx, style, t); err != nil {
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			bar.Add(1)
		}(tile)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return failed, ctx.Err()
	}
	if firstErr != nil {
		return failed, fmt.Errorf("%d of %d tiles failed: %w", failed, len(tiles), firstErr)
	}
	return 0, nil
}
