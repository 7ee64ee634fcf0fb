package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"gpx_poster/internal/config"
	"gpx_poster/internal/render"
	"gpx_poster/internal/tiles"
)

const tileFetchConcurrency = 8

// --- Main Logic ---

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	args := parseArguments(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs := loadJobs(args)

	if args.Summary {
		failed := false
		for _, job := range jobs {
			printSummary(os.Stdout, job)
			failed = failed || job.Err != nil
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	fetcher, err := tiles.NewFetcher(args.TileCacheDir, cfg.TileRPS, cfg.TileBurst, cfg.TileTimeout)
	if err != nil {
		log.Fatalf("Error creating tile fetcher: %v", err)
	}
	if cfg.TileUserAgent != "" {
		fetcher.UserAgent = cfg.TileUserAgent
	}

	renderer, err := render.New(fetcher)
	if err != nil {
		log.Fatal(err)
	}
	renderer.MapBrightness = args.MapBrightness
	renderer.MapContrast = args.MapContrast

	// --- Prefetch Tiles ---
	prefetchTiles(ctx, fetcher, jobs, args)

	failed := 0
	renderJobs(ctx, jobs, renderer, args, func(r Result) {
		if r.Err != nil {
			failed++
			log.Printf("%s: %v", r.Path, r.Err)
			return
		}
		fmt.Printf("Poster saved to %s\n", r.Output)
	})

	if ctx.Err() != nil {
		log.Fatal("Interrupted")
	}
	if failed > 0 {
		log.Fatalf("%d of %d posters failed", failed, len(jobs))
	}
}
