package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gpx_poster/internal/config"
	"gpx_poster/internal/render"
	"gpx_poster/internal/server"
	"gpx_poster/internal/tiles"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	fetcher, err := tiles.NewFetcher(cfg.TileCacheDir, cfg.TileRPS, cfg.TileBurst, cfg.TileTimeout)
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
	renderer.MapBrightness = cfg.MapBrightness
	renderer.MapContrast = cfg.MapContrast

	if cfg.MapStyle != "" {
		if _, err := tiles.LookupStyle(cfg.MapStyle); err != nil {
			log.Fatalf("Error in MAP_STYLE: %v", err)
		}
	}

	srv := server.New(server.NewStore(cfg.SessionTTL), renderer, server.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		DefaultMapStyle:    cfg.MapStyle,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Store.Run(ctx, time.Minute)
	go srv.Limiter.Run(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
